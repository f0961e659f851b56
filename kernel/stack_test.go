package kernel

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestReserveRelease(t *testing.T) {
	s := newTestSystem(t, testConfig())

	checked := make(chan error, 1)
	s.k.NewThread("frames", 256, func() int {
		me := s.k.Me()
		before := me.StackPeakBytes()

		buf := me.Reserve(64)
		if buf == nil || len(buf) != 64 {
			checked <- errFmt("Reserve(64) returned %d bytes, want 64", len(buf))
			return 1
		}
		buf[0] = 0xA5
		if peak := me.StackPeakBytes(); peak < before+64 {
			checked <- errFmt("StackPeakBytes() = %d after Reserve, want >= %d", peak, before+64)
			return 1
		}
		me.Release(64)
		checked <- nil
		return 0
	}, FlagReady, nil, nil)

	s.start()
	select {
	case err := <-checked:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(testTimeout):
		t.Fatal("timed out")
	}
}

func TestReserveByWrongThread(t *testing.T) {
	s := newTestSystem(t, testConfig())
	th := s.k.NewThread("target", 256, nil, 0, nil, nil)

	if buf := th.Reserve(16); buf != nil {
		t.Fatalf("Reserve() by wrong thread = %v, want nil", buf)
	}
}

func TestStackOverflowHookFiresOncePerBreach(t *testing.T) {
	cfg := testConfig()
	var fired atomic.Uint64
	cfg.OnStackOverflow = func(t *Thread) { fired.Add(1) }
	s := newTestSystem(t, cfg)

	var other atomic.Uint64
	recovered := make(chan struct{})

	// a thread with the minimum stack recurses until it breaches, parks at a
	// checkpoint (where the save detects the breach), then unwinds
	s.k.NewThread("recurser", MinStackBytes, func() int {
		me := s.k.Me()

		var recurse func(depth int)
		recurse = func(depth int) {
			me.Reserve(32)
			defer me.Release(32)
			if depth > 0 {
				recurse(depth - 1)
				return
			}
			// deep enough to be past the bottom: let a context save see it
			s.k.Delay(2)
		}
		recurse(8)

		s.k.Delay(2)
		close(recovered)
		return 0
	}, FlagReady, nil, nil)

	// the kernel must keep servicing other threads after the breach
	s.k.NewThread("bystander", 256, busyEntry(s.k, &other), FlagReady, nil, nil)

	s.start()
	s.tick(30, 300*time.Microsecond)

	select {
	case <-recovered:
	case <-time.After(testTimeout):
		t.Fatal("recurser never recovered")
	}
	if got := fired.Load(); got != 1 {
		t.Fatalf("overflow hook fired %d times, want exactly 1 per breach", got)
	}
	if other.Load() == 0 {
		t.Fatal("bystander starved after overflow")
	}
}

func TestReanimateRewritesPrelude(t *testing.T) {
	cfg := testConfig()
	cfg.NumPoolThreads = 1
	s := newTestSystem(t, cfg)

	th := s.k.FromPool("one", func() int { return 0 }, nil, nil)
	if th == nil {
		t.Fatal("FromPool() = nil")
	}

	top := len(th.stack)
	tok1 := uint16(th.stack[top-1]) | uint16(th.stack[top-2])<<8
	id1 := th.ID()

	s.start()
	eventually(t, "first job to recycle", func() bool { return s.k.PoolCount() == 1 })

	th2 := s.k.FromPool("two", func() int { return 0 }, nil, nil)
	if th2 != th {
		t.Fatalf("FromPool() = %p, want recycled descriptor %p", th2, th)
	}
	tok2 := uint16(th.stack[top-1]) | uint16(th.stack[top-2])<<8
	if tok2 == tok1 {
		t.Fatalf("prelude token unchanged (%#x) across reanimation", tok2)
	}
	if th.ID() == id1 {
		t.Fatalf("ID() = %d unchanged across reanimation", th.ID())
	}
}

func errFmt(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
