package display

import (
	"errors"
	"fmt"
	"time"

	"github.com/aykevl/ledsgo"

	"github.com/fkcurrie/glyphboard/internal/glyph"
	"github.com/fkcurrie/glyphboard/internal/types"
	"github.com/fkcurrie/glyphboard/pkg/pio"
)

// DefaultLatch is the idle time held after each flush so the next flush
// starts a new frame. WS2812 needs at least 50us.
const DefaultLatch = 100 * time.Microsecond

// ErrOutOfBounds is returned for pixel indices or coordinates outside the
// matrix.
var ErrOutOfBounds = errors.New("out of bounds")

// DigitColor is the colour of digits shown by DisplayDigit
var DigitColor = types.Color{R: 255}

// Serpentine maps logical (x, y) on a matrix w pixels wide to the index of
// the LED on a strip wired boustrophedon: even rows run left to right, odd
// rows right to left.
func Serpentine(x, y, w int) int {
	if y%2 == 0 {
		return y*w + x
	}
	return (y+1)*w - 1 - x
}

// Matrix represents a WS2812 LED matrix
type Matrix struct {
	width  int
	height int
	frame  []types.Color
	tx     types.Transmitter
	latch  time.Duration
	sleep  func(time.Duration)
	closer func()
}

// InitMatrix claims a state machine on p, starts the WS2812 program on the
// configured pin and returns a matrix with a cleared frame.
func InitMatrix(p *pio.PIO, cfg types.MatrixConfig) (*Matrix, error) {
	sm, err := pio.NewWS2812(p, uint8(cfg.Pin), uint32(cfg.Frequency))
	if err != nil {
		return nil, fmt.Errorf("failed to start WS2812 on pin %d: %w", cfg.Pin, err)
	}

	m, err := NewMatrix(cfg.Width, cfg.Height, sm)
	if err != nil {
		sm.Unclaim()
		return nil, err
	}
	if cfg.LatchUS > 0 {
		m.latch = time.Duration(cfg.LatchUS) * time.Microsecond
	}
	m.closer = sm.Unclaim
	return m, nil
}

// NewMatrix creates a matrix that flushes to tx
func NewMatrix(width, height int, tx types.Transmitter) (*Matrix, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%d", width, height)
	}

	return &Matrix{
		width:  width,
		height: height,
		frame:  make([]types.Color, width*height),
		tx:     tx,
		latch:  DefaultLatch,
		sleep:  time.Sleep,
	}, nil
}

// Close releases the state machine, if the matrix owns one
func (m *Matrix) Close() error {
	if m.closer != nil {
		m.closer()
		m.closer = nil
	}
	return nil
}

// GetDimensions returns the dimensions of the LED matrix
func (m *Matrix) GetDimensions() (width, height int) {
	return m.width, m.height
}

// Len returns the number of LEDs
func (m *Matrix) Len() int {
	return len(m.frame)
}

// SetPixel stores a colour at a physical strip index
func (m *Matrix) SetPixel(index int, r, g, b uint8) error {
	if index < 0 || index >= len(m.frame) {
		return fmt.Errorf("pixel index %d: %w", index, ErrOutOfBounds)
	}
	m.frame[index] = types.Color{R: r, G: g, B: b}
	return nil
}

// SetPixelXY stores a colour at logical coordinates
func (m *Matrix) SetPixelXY(x, y int, c types.Color) error {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return fmt.Errorf("coordinates (%d, %d): %w", x, y, ErrOutOfBounds)
	}
	return m.SetPixel(Serpentine(x, y, m.width), c.R, c.G, c.B)
}

// SetPixelHSV stores a colour given as hue, saturation and value at logical
// coordinates
func (m *Matrix) SetPixelHSV(x, y int, h uint16, s, v uint8) error {
	rgba := ledsgo.Color{H: h, S: s, V: v}.Spectrum()
	return m.SetPixelXY(x, y, types.Color{R: rgba.R, G: rgba.G, B: rgba.B})
}

// PixelAt returns the colour stored at a physical strip index
func (m *Matrix) PixelAt(index int) (types.Color, error) {
	if index < 0 || index >= len(m.frame) {
		return types.Off, fmt.Errorf("pixel index %d: %w", index, ErrOutOfBounds)
	}
	return m.frame[index], nil
}

// Clear turns every pixel off. Nothing is sent until Flush.
func (m *Matrix) Clear() {
	m.Fill(types.Off)
}

// Fill sets every pixel to c
func (m *Matrix) Fill(c types.Color) {
	for i := range m.frame {
		m.frame[i] = c
	}
}

// Flush sends the whole frame, pixel 0 first, as green, red, blue bytes,
// then holds the line idle for the latch time. It blocks while the
// transmitter is full.
func (m *Matrix) Flush() {
	for _, c := range m.frame {
		m.tx.Put(uint32(c.G) << 24)
		m.tx.Put(uint32(c.R) << 24)
		m.tx.Put(uint32(c.B) << 24)
	}
	m.sleep(m.latch)
}

// DisplayDigit shows value in 0..9 in red and flushes
func (m *Matrix) DisplayDigit(value int) error {
	g, ok := glyph.Digits(value)
	if !ok {
		return fmt.Errorf("digit %d: %w", value, ErrOutOfBounds)
	}

	m.Clear()
	for y := 0; y < glyph.DigitSize; y++ {
		for x := 0; x < glyph.DigitSize; x++ {
			if !g.On(x, y) {
				continue
			}
			if err := m.SetPixelXY(x, y, DigitColor); err != nil {
				return err
			}
		}
	}
	m.Flush()
	return nil
}
