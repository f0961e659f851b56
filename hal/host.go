//go:build !tinygo

package hal

import (
	"sync"
	"time"
)

type hostHAL struct {
	logger *hostLogger
	led    *hostLED
	serial Serial
	clock  *hostClock
	fb     *Framebuffer
}

// New returns the host HAL: a raw-mode terminal console (falling back to
// stdio when no TTY is available), a structured-log debug path, a 1 ms
// ticker, and an optional front-panel framebuffer.
func New(cfg Config) HAL {
	logger := newHostLogger()

	var fb *Framebuffer
	if !cfg.Headless {
		w, h := cfg.PanelWidth, cfg.PanelHeight
		if w <= 0 {
			w = 480
		}
		if h <= 0 {
			h = 320
		}
		fb = NewFramebuffer(w, h)
	}

	return &hostHAL{
		logger: logger,
		led:    &hostLED{logger: logger},
		serial: newHostSerial(),
		clock:  newHostClock(),
		fb:     fb,
	}
}

func (h *hostHAL) Logger() Logger            { return h.logger }
func (h *hostHAL) LED() LED                  { return h.led }
func (h *hostHAL) Serial() Serial            { return h.serial }
func (h *hostHAL) Clock() Clock              { return h.clock }
func (h *hostHAL) Framebuffer() *Framebuffer { return h.fb }

func (h *hostHAL) Rest() { time.Sleep(200 * time.Microsecond) }

type hostLED struct {
	mu     sync.Mutex
	logger *hostLogger
	on     bool
}

func (l *hostLED) High() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.on {
		l.on = true
		l.logger.WriteLineString("led: HIGH")
	}
}

func (l *hostLED) Low() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.on {
		l.on = false
		l.logger.WriteLineString("led: LOW")
	}
}

// hostClock delivers the 1 ms heartbeat from a wall-clock ticker. Host
// tickers coalesce under load, so each wakeup accounts for the real elapsed
// time and the sequence number jumps accordingly.
type hostClock struct {
	ch chan uint64
}

func newHostClock() *hostClock {
	c := &hostClock{ch: make(chan uint64, 1024)}
	go c.run()
	return c
}

func (c *hostClock) Ticks() <-chan uint64 { return c.ch }

func (c *hostClock) run() {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	start := time.Now()
	var seq uint64
	for now := range ticker.C {
		target := uint64(now.Sub(start) / time.Millisecond)
		for seq < target {
			seq++
			select {
			case c.ch <- seq:
			default:
			}
		}
	}
}
