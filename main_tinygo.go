//go:build tinygo

package main

import (
	"ember/app"
	"ember/hal"
)

func main() {
	h := hal.New(hal.Config{Headless: true})
	app.Run(h, app.Config{Monitor: true, Demo: true, Banner: "ember"})
}
