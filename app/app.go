// Package app wires the system together: kernel construction (the pre-main
// phase), the monitor and panel services, the demo threads, and the post-main
// hand-off into the scheduler.
package app

import (
	"fmt"

	"ember/hal"
	"ember/kernel"
	"ember/monitor"
	"ember/panel"
)

// Config selects the optional surfaces.
type Config struct {
	// Monitor enables the serial console.
	Monitor bool

	// Demo starts the LED flasher threads.
	Demo bool

	// Banner is printed on the console at startup.
	Banner string
}

// Boot performs the pre-main phase and service/thread creation, leaving the
// system one Start call away from running.
func Boot(h hal.HAL, cfg Config) (*kernel.Kernel, error) {
	kcfg := kernel.DefaultConfig()
	kcfg.Idle = h.Rest
	kcfg.Trace = func(ev kernel.TraceEvent, t *kernel.Thread) {
		h.Logger().WriteLineString(fmt.Sprintf("kernel: %s thread=%d name=%s", ev, t.ID(), t.Name()))
	}
	kcfg.OnStackOverflow = func(t *kernel.Thread) {
		h.Logger().WriteLineString(fmt.Sprintf("kernel: stack overflow in thread %d (%s)", t.ID(), t.Name()))
	}

	k, err := kernel.New(kcfg)
	if err != nil {
		return nil, err
	}

	if cfg.Monitor {
		m := monitor.New(k, h.Serial(), cfg.Banner)
		if m.Start() == nil {
			return nil, fmt.Errorf("app: monitor thread creation failed")
		}
	}

	if p := panel.New(k, h.Framebuffer()); p != nil {
		if p.Start() == nil {
			return nil, fmt.Errorf("app: panel thread creation failed")
		}
	}

	if cfg.Demo {
		startFlashers(k, h.LED())
	}

	return k, nil
}

// Run boots and enters the post-main phase. It never returns on a healthy
// system.
func Run(h hal.HAL, cfg Config) error {
	k, err := Boot(h, cfg)
	if err != nil {
		return err
	}
	k.Start(h.Clock().Ticks())
	return fmt.Errorf("app: tick source closed")
}
