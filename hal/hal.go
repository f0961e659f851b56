// Package hal is the hardware abstraction layer: the small set of devices
// the kernel and its services consume, with one implementation per port
// (desktop host and TinyGo bare metal).
package hal

import "errors"

var ErrNotImplemented = errors.New("not implemented")

// Config controls port construction. Fields a port has no use for are
// ignored (bare metal has no panel window).
type Config struct {
	// Headless suppresses the front-panel framebuffer.
	Headless bool

	// PanelWidth and PanelHeight size the front panel; zero means default.
	PanelWidth  int
	PanelHeight int
}

// Logger writes newline-delimited log lines on the port's debug path.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// LED is a minimal output pin abstraction.
type LED interface {
	High()
	Low()
}

// Serial is the byte-stream console the monitor owns.
type Serial interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// Clock emits the 1 ms heartbeat that drives both kernel ISRs. Ports may
// coalesce missed ticks; the sequence number lets the kernel catch up.
type Clock interface {
	Ticks() <-chan uint64
}

// HAL aggregates a port's devices.
type HAL interface {
	Logger() Logger
	LED() LED
	Serial() Serial
	Clock() Clock

	// Framebuffer returns the front-panel surface, or nil when the port has
	// no display.
	Framebuffer() *Framebuffer

	// Rest parks the caller briefly; the idle thread calls this between
	// checkpoints so a quiet system does not spin the host CPU.
	Rest()
}
