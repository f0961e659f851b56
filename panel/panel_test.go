package panel

import (
	"testing"
	"time"

	"ember/hal"
	"ember/kernel"
)

func testKernel(t *testing.T) *kernel.Kernel {
	t.Helper()
	cfg := kernel.DefaultConfig()
	cfg.DynamicBytes = 8 * 1024
	cfg.PageBytes = 32
	cfg.Idle = func() { time.Sleep(20 * time.Microsecond) }
	k, err := kernel.New(cfg)
	if err != nil {
		t.Fatalf("kernel.New() error = %v", err)
	}
	return k
}

func TestNewWithoutDisplay(t *testing.T) {
	if p := New(testKernel(t), nil); p != nil {
		t.Fatalf("New(nil framebuffer) = %v, want nil", p)
	}
}

func TestRedrawPaintsThreadTable(t *testing.T) {
	k := testKernel(t)
	fb := hal.NewFramebuffer(480, 320)
	p := New(k, fb)
	if p == nil {
		t.Fatal("New() = nil")
	}

	p.redraw()

	// the table must have painted something over the background
	snap := make([]byte, fb.BufBytes())
	fb.Snapshot(snap)

	distinct := map[uint16]int{}
	for i := 0; i+1 < len(snap); i += 2 {
		distinct[uint16(snap[i])|uint16(snap[i+1])<<8]++
	}
	if len(distinct) < 2 {
		t.Fatalf("redraw left %d distinct colors, want background plus text", len(distinct))
	}
}
