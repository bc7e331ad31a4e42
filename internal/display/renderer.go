package display

import (
	"fmt"
	"sync"

	"github.com/fkcurrie/glyphboard/internal/glyph"
	"github.com/fkcurrie/glyphboard/internal/types"
)

const (
	// Advance is the horizontal cursor step per character
	Advance = glyph.TextWidth + 1
	// LineHeight is the vertical cursor step per newline
	LineHeight = glyph.TextHeight + 1
)

// DrawChar draws c with its top-left corner at (x, y). Characters without a
// glyph, including space, draw nothing. Pixels outside fb are clipped.
func DrawChar(fb *Framebuffer, x, y int, c rune) {
	g, ok := glyph.Lookup(c)
	if !ok {
		return
	}
	for col := 0; col < glyph.TextWidth; col++ {
		for row := 0; row < glyph.TextHeight; row++ {
			fb.SetPixel(x+col, y+row, g.On(col, row))
		}
	}
}

// DrawString draws text left to right from (x, y). Every character,
// drawn or not, advances the cursor; '\n' returns to x on the next line.
func DrawString(fb *Framebuffer, x, y int, text string) {
	cx, cy := x, y
	for _, c := range text {
		if c == '\n' {
			cx = x
			cy += LineHeight
			continue
		}
		DrawChar(fb, cx, cy, c)
		cx += Advance
	}
}

// Renderer repaints a panel from text
type Renderer struct {
	mu      sync.Mutex
	fb      *Framebuffer
	panel   types.Panel
	originX int
	originY int
}

// NewRenderer creates a renderer for a panel of the configured size
func NewRenderer(cfg types.DisplayConfig, panel types.Panel) *Renderer {
	return &Renderer{
		fb:      NewFramebuffer(cfg.Width, cfg.Height),
		panel:   panel,
		originX: cfg.OriginX,
		originY: cfg.OriginY,
	}
}

// Framebuffer returns the buffer the renderer draws into
func (r *Renderer) Framebuffer() *Framebuffer {
	return r.fb
}

// RenderFrame clears the framebuffer, draws text at the origin and pushes
// the whole buffer to the panel.
func (r *Renderer) RenderFrame(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.fb.Clear()
	DrawString(r.fb, r.originX, r.originY, text)
	return r.show()
}

// Show pushes the framebuffer as it is
func (r *Renderer) Show() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.show()
}

func (r *Renderer) show() error {
	if _, err := r.panel.Write(r.fb.Bytes()); err != nil {
		return fmt.Errorf("failed to write display frame: %w", err)
	}
	return nil
}
