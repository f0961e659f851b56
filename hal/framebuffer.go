package hal

import (
	"image/color"
	"sync"
)

// Framebuffer is an RGB565 pixel buffer shared between a renderer (the front
// panel service) and a presenter (the host window, or a display driver on
// hardware). Access is synchronized so the two sides need no coordination.
type Framebuffer struct {
	mu     sync.Mutex
	width  int
	height int
	stride int
	buf    []byte
}

// NewFramebuffer returns a cleared RGB565 framebuffer.
func NewFramebuffer(width, height int) *Framebuffer {
	stride := width * 2
	return &Framebuffer{
		width:  width,
		height: height,
		stride: stride,
		buf:    make([]byte, stride*height),
	}
}

// Size returns the framebuffer dimensions. The signature matches the
// tinygo.org/x/drivers Displayer contract so font renderers can draw
// straight onto the panel.
func (f *Framebuffer) Size() (x, y int16) {
	return int16(f.width), int16(f.height)
}

// SetPixel writes one pixel. Out-of-bounds writes are discarded.
func (f *Framebuffer) SetPixel(x, y int16, c color.RGBA) {
	ix, iy := int(x), int(y)
	if ix < 0 || ix >= f.width || iy < 0 || iy >= f.height {
		return
	}

	pixel := rgb565(c.R, c.G, c.B)
	f.mu.Lock()
	off := iy*f.stride + ix*2
	f.buf[off] = byte(pixel)
	f.buf[off+1] = byte(pixel >> 8)
	f.mu.Unlock()
}

// Display is a Displayer no-op: the buffer is always live for the presenter.
func (f *Framebuffer) Display() error { return nil }

// ClearRGB fills the whole buffer with one color.
func (f *Framebuffer) ClearRGB(r, g, b uint8) {
	pixel := rgb565(r, g, b)
	lo := byte(pixel)
	hi := byte(pixel >> 8)

	f.mu.Lock()
	for i := 0; i < len(f.buf); i += 2 {
		f.buf[i] = lo
		f.buf[i+1] = hi
	}
	f.mu.Unlock()
}

// FillRect fills a rectangle, clipped to the buffer.
func (f *Framebuffer) FillRect(x, y, w, h int, c color.RGBA) {
	pixel := rgb565(c.R, c.G, c.B)
	lo := byte(pixel)
	hi := byte(pixel >> 8)

	f.mu.Lock()
	for row := y; row < y+h; row++ {
		if row < 0 || row >= f.height {
			continue
		}
		for col := x; col < x+w; col++ {
			if col < 0 || col >= f.width {
				continue
			}
			off := row*f.stride + col*2
			f.buf[off] = lo
			f.buf[off+1] = hi
		}
	}
	f.mu.Unlock()
}

// Snapshot copies the RGB565 contents into dst for presentation.
func (f *Framebuffer) Snapshot(dst []byte) {
	f.mu.Lock()
	copy(dst, f.buf)
	f.mu.Unlock()
}

// Width returns the buffer width in pixels.
func (f *Framebuffer) Width() int { return f.width }

// Height returns the buffer height in pixels.
func (f *Framebuffer) Height() int { return f.height }

// BufBytes returns the size of the RGB565 buffer.
func (f *Framebuffer) BufBytes() int { return len(f.buf) }

func rgb565(r, g, b uint8) uint16 {
	rr := uint16(r>>3) & 0x1F
	gg := uint16(g>>2) & 0x3F
	bb := uint16(b>>3) & 0x1F
	return (rr << 11) | (gg << 5) | bb
}

func rgb888From565(p uint16) (r, g, b uint8) {
	rr := (p >> 11) & 0x1F
	gg := (p >> 5) & 0x3F
	bb := p & 0x1F

	r = uint8((rr * 255) / 31)
	g = uint8((gg * 255) / 63)
	b = uint8((bb * 255) / 31)
	return r, g, b
}
