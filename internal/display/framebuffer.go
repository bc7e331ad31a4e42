package display

import (
	"image"
	"image/color"
)

// Framebuffer is a 1 bit per pixel buffer in the SSD1306 page layout: each
// byte holds 8 vertically adjacent pixels, least significant bit on top,
// and pages of 8 rows follow each other left to right, top to bottom.
type Framebuffer struct {
	width  int
	height int
	pix    []byte
}

// NewFramebuffer creates a cleared framebuffer. height is rounded up to a
// whole page.
func NewFramebuffer(width, height int) *Framebuffer {
	pages := (height + 7) / 8
	return &Framebuffer{
		width:  width,
		height: height,
		pix:    make([]byte, width*pages),
	}
}

// Size returns the dimensions in pixels
func (f *Framebuffer) Size() (width, height int) {
	return f.width, f.height
}

// Bytes returns the buffer in native layout. The slice aliases f.
func (f *Framebuffer) Bytes() []byte {
	return f.pix
}

// Clear turns every pixel off
func (f *Framebuffer) Clear() {
	for i := range f.pix {
		f.pix[i] = 0
	}
}

// SetPixel turns the pixel at (x, y) on or off. Coordinates outside the
// buffer are rejected and false is returned.
func (f *Framebuffer) SetPixel(x, y int, on bool) bool {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return false
	}
	idx := (y/8)*f.width + x
	bit := byte(1) << uint(y%8)
	if on {
		f.pix[idx] |= bit
	} else {
		f.pix[idx] &^= bit
	}
	return true
}

// Pixel reports whether the pixel at (x, y) is on
func (f *Framebuffer) Pixel(x, y int) bool {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return false
	}
	return f.pix[(y/8)*f.width+x]&(1<<uint(y%8)) != 0
}

// DrawImage thresholds img onto the buffer with its top-left corner at
// (x, y). Pixels brighter than half scale and not transparent are lit;
// the rest of the covered area is cleared.
func (f *Framebuffer) DrawImage(x, y int, img image.Image) {
	b := img.Bounds()
	for sy := b.Min.Y; sy < b.Max.Y; sy++ {
		for sx := b.Min.X; sx < b.Max.X; sx++ {
			g := color.Gray16Model.Convert(img.At(sx, sy)).(color.Gray16)
			_, _, _, a := img.At(sx, sy).RGBA()
			f.SetPixel(x+sx-b.Min.X, y+sy-b.Min.Y, a >= 0x8000 && g.Y >= 0x8000)
		}
	}
}
