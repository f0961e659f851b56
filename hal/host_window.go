//go:build !tinygo

package hal

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// RunWindow opens a desktop window that presents the front-panel
// framebuffer. It blocks until the window closes and must run on the main
// goroutine; start the kernel elsewhere first.
func RunWindow(title string, fb *Framebuffer) error {
	g := &panelWindow{fb: fb}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(fb.Width()*2, fb.Height()*2)
	ebiten.SetTPS(30)
	return ebiten.RunGame(g)
}

type panelWindow struct {
	fb      *Framebuffer
	img     *image.RGBA
	fbImg   *ebiten.Image
	scratch []byte
}

func (g *panelWindow) Update() error { return nil }

func (g *panelWindow) Draw(screen *ebiten.Image) {
	fb := g.fb
	if g.img == nil {
		g.img = image.NewRGBA(image.Rect(0, 0, fb.Width(), fb.Height()))
		g.scratch = make([]byte, fb.BufBytes())
		g.fbImg = ebiten.NewImage(fb.Width(), fb.Height())
	}

	fb.Snapshot(g.scratch)

	src := g.scratch
	dst := g.img.Pix
	for i := 0; i+1 < len(src) && i/2*4+3 < len(dst); i += 2 {
		r, gg, b := rgb888From565(uint16(src[i]) | uint16(src[i+1])<<8)
		j := (i / 2) * 4
		dst[j+0] = r
		dst[j+1] = gg
		dst[j+2] = b
		dst[j+3] = 0xFF
	}

	g.fbImg.WritePixels(g.img.Pix)
	screen.DrawImage(g.fbImg, nil)
}

func (g *panelWindow) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.fb.Width(), g.fb.Height()
}
