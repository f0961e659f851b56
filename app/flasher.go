package app

import (
	"ember/hal"
	"ember/kernel"
)

// The demo threads: two flashers sharing one LED on different periods, so
// the blink pattern drifts in and out of phase — visible proof that both
// threads are being scheduled independently.

func startFlashers(k *kernel.Kernel, led hal.LED) {
	k.NewThread("first", 0, flasher(k, led, 250), kernel.FlagReady, nil, nil)
	k.NewThread("second", 0, flasher(k, led, 330), kernel.FlagReady, nil, nil)
}

func flasher(k *kernel.Kernel, led hal.LED, period kernel.Duration) kernel.Entry {
	return func() int {
		on := false
		for {
			if on {
				led.Low()
			} else {
				led.High()
			}
			on = !on
			k.Delay(period)
		}
	}
}
