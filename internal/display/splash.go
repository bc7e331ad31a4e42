package display

import (
	"bytes"
	_ "embed"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

//go:embed splash.svg
var defaultSplash []byte

// RasterizeSVG renders an SVG document scaled to width x height
func RasterizeSVG(r io.Reader, width, height int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}

	icon.SetTarget(0, 0, float64(width), float64(height))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(width, height, scanner), 1)
	return img, nil
}

// DrawSplash rasterizes the SVG at path, or the built in logo when path is
// empty, onto the framebuffer and shows it.
func (r *Renderer) DrawSplash(path string) error {
	src := defaultSplash
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read splash: %w", err)
		}
		src = data
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	w, h := r.fb.Size()
	img, err := RasterizeSVG(bytes.NewReader(src), w, h)
	if err != nil {
		return err
	}
	r.fb.Clear()
	r.fb.DrawImage(0, 0, img)
	return r.show()
}
