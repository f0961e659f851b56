//go:build !tinygo

package main

import (
	"flag"
	"fmt"
	"os"

	"ember/app"
	"ember/hal"
	"ember/internal/buildinfo"
)

func main() {
	var headless bool
	var noDemo bool
	flag.BoolVar(&headless, "headless", false, "Run without the front-panel window.")
	flag.BoolVar(&noDemo, "no-demo", false, "Do not start the LED flasher threads.")
	flag.Parse()

	h := hal.New(hal.Config{Headless: headless})
	cfg := app.Config{
		Monitor: true,
		Demo:    !noDemo,
		Banner:  "ember " + buildinfo.Short(),
	}

	if fb := h.Framebuffer(); fb != nil {
		// the kernel runs off-main; ebiten owns the main goroutine
		go func() {
			if err := app.Run(h, cfg); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		}()
		if err := hal.RunWindow("ember ("+buildinfo.Short()+")", fb); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := app.Run(h, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
