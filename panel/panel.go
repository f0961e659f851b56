// Package panel renders a read-only thread table onto the front-panel
// framebuffer: one row per live thread with id, name, state, and stack use.
// The renderer is a normal kernel thread that redraws a few times a second;
// presentation (a desktop window, or a display driver on hardware) happens
// on the other side of the framebuffer.
package panel

import (
	"fmt"
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"

	"ember/hal"
	"ember/kernel"
)

// the framebuffer doubles as a display for the font renderer
var _ drivers.Displayer = (*hal.Framebuffer)(nil)

var (
	font = &proggy.TinySZ8pt7b

	colBack   = color.RGBA{R: 0x10, G: 0x12, B: 0x18, A: 0xFF}
	colHeader = color.RGBA{R: 0xE8, G: 0xC0, B: 0x50, A: 0xFF}
	colText   = color.RGBA{R: 0xC8, G: 0xD0, B: 0xD8, A: 0xFF}
	colRun    = color.RGBA{R: 0x60, G: 0xD0, B: 0x70, A: 0xFF}
	colStop   = color.RGBA{R: 0xD0, G: 0x60, B: 0x60, A: 0xFF}
)

const (
	lineHeight  = 12
	leftMargin  = 6
	topMargin   = 14
	redrawMS    = 250
	threadStack = 512
)

// Panel periodically paints the thread table.
type Panel struct {
	k  *kernel.Kernel
	fb *hal.Framebuffer
}

// New wires a panel to a kernel and framebuffer. Returns nil when the port
// has no display surface.
func New(k *kernel.Kernel, fb *hal.Framebuffer) *Panel {
	if fb == nil {
		return nil
	}
	return &Panel{k: k, fb: fb}
}

// Start launches the renderer thread.
func (p *Panel) Start() *kernel.Thread {
	return p.k.NewThread("panel", threadStack, p.run, kernel.FlagReady, nil, nil)
}

func (p *Panel) run() int {
	for {
		p.redraw()
		p.k.Delay(redrawMS)
	}
}

func (p *Panel) redraw() {
	p.fb.ClearRGB(colBack.R, colBack.G, colBack.B)

	y := int16(topMargin)
	total, used, free := p.k.PageStats()
	header := fmt.Sprintf("ember  up %d ms   pages %d/%d used, %d free",
		p.k.Now(), used, total, free)
	tinyfont.WriteLine(p.fb, font, leftMargin, y, header, colHeader)

	y += lineHeight
	tinyfont.WriteLine(p.fb, font, leftMargin, y, "ID  NAME          STATE     STACK  PEAK", colHeader)

	for _, info := range p.k.Threads() {
		y += lineHeight
		if int(y) >= p.fb.Height()-2 {
			break
		}
		name := info.Name
		if name == "" {
			name = "-"
		}
		line := fmt.Sprintf("%2d  %-12s  %-8s  %5d %5d",
			info.ID, name, info.State, info.StackBytes, info.StackPeak)

		c := colText
		switch info.State {
		case kernel.StateRunning:
			c = colRun
		case kernel.StateStopped:
			c = colStop
		}
		tinyfont.WriteLine(p.fb, font, leftMargin, y, line, c)
	}
}
