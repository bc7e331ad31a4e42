package display

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/fkcurrie/glyphboard/internal/types"
	"github.com/fkcurrie/glyphboard/pkg/pio"
)

type recorder struct {
	words []uint32
}

func (r *recorder) Put(word uint32) {
	r.words = append(r.words, word)
}

// bytes returns the transmitted data bytes in wire order
func (r *recorder) bytes() []byte {
	out := make([]byte, len(r.words))
	for i, w := range r.words {
		out[i] = byte(w >> 24)
	}
	return out
}

func newTestMatrix(t *testing.T, w, h int) (*Matrix, *recorder, *[]time.Duration) {
	t.Helper()
	rec := &recorder{}
	m, err := NewMatrix(w, h, rec)
	if err != nil {
		t.Fatalf("NewMatrix() error = %v", err)
	}
	var sleeps []time.Duration
	m.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return m, rec, &sleeps
}

func TestSerpentine(t *testing.T) {
	tests := []struct {
		x, y, w int
		want    int
	}{
		{0, 0, 5, 0},
		{4, 0, 5, 4},
		{0, 1, 5, 9},
		{4, 1, 5, 5},
		{2, 2, 5, 12},
		{0, 3, 5, 19},
		{4, 4, 5, 24},
	}

	for _, tt := range tests {
		if got := Serpentine(tt.x, tt.y, tt.w); got != tt.want {
			t.Errorf("Serpentine(%d, %d, %d) = %d, want %d", tt.x, tt.y, tt.w, got, tt.want)
		}
	}
}

func TestSerpentineBijection(t *testing.T) {
	for _, dim := range [][2]int{{5, 5}, {8, 4}, {3, 7}} {
		w, h := dim[0], dim[1]
		seen := make(map[int]bool)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := Serpentine(x, y, w)
				if i < 0 || i >= w*h {
					t.Fatalf("%dx%d: (%d, %d) maps to %d, outside strip", w, h, x, y, i)
				}
				if seen[i] {
					t.Fatalf("%dx%d: index %d mapped twice", w, h, i)
				}
				seen[i] = true
			}
		}
	}
}

func TestNewMatrixInvalid(t *testing.T) {
	for _, dim := range [][2]int{{0, 5}, {5, 0}, {-1, 3}} {
		if _, err := NewMatrix(dim[0], dim[1], &recorder{}); err == nil {
			t.Errorf("NewMatrix(%d, %d) succeeded", dim[0], dim[1])
		}
	}
}

func TestFlushColorOrder(t *testing.T) {
	m, rec, _ := newTestMatrix(t, 5, 5)

	if err := m.SetPixel(3, 10, 20, 30); err != nil {
		t.Fatalf("SetPixel() error = %v", err)
	}
	m.Flush()

	got := rec.bytes()
	if len(got) != 75 {
		t.Fatalf("flushed %d bytes, want 75", len(got))
	}
	if want := []byte{20, 10, 30}; !reflect.DeepEqual(got[9:12], want) {
		t.Errorf("pixel 3 sent as %v, want %v", got[9:12], want)
	}
	for i, b := range got {
		if i >= 9 && i < 12 {
			continue
		}
		if b != 0 {
			t.Errorf("byte %d = %d, want 0", i, b)
		}
	}
	for i, w := range rec.words {
		if w&0x00ffffff != 0 {
			t.Fatalf("word %d = %#x, data not left aligned", i, w)
		}
	}
}

func TestClearFlushSendsZeros(t *testing.T) {
	m, rec, _ := newTestMatrix(t, 5, 5)

	m.Fill(types.Color{R: 1, G: 2, B: 3})
	m.Clear()
	m.Flush()

	got := rec.bytes()
	if len(got) != 75 {
		t.Fatalf("flushed %d bytes, want 75", len(got))
	}
	for i, b := range got {
		if b != 0 {
			t.Fatalf("byte %d = %d after Clear, want 0", i, b)
		}
	}
}

func TestClearIdempotent(t *testing.T) {
	m, rec, _ := newTestMatrix(t, 5, 5)

	m.Clear()
	m.Flush()
	first := rec.bytes()
	rec.words = nil

	m.Clear()
	m.Clear()
	m.Flush()
	if !reflect.DeepEqual(first, rec.bytes()) {
		t.Error("Clear twice produced a different stream than once")
	}
}

func TestFlushRepeatable(t *testing.T) {
	m, rec, _ := newTestMatrix(t, 5, 5)

	m.SetPixelXY(1, 1, types.Color{R: 9, G: 8, B: 7})
	m.Flush()
	first := rec.bytes()
	rec.words = nil
	m.Flush()

	if !reflect.DeepEqual(first, rec.bytes()) {
		t.Error("second Flush of unchanged frame sent different bytes")
	}
}

func TestFlushLatch(t *testing.T) {
	m, _, sleeps := newTestMatrix(t, 5, 5)

	m.Flush()
	m.Flush()

	if len(*sleeps) != 2 {
		t.Fatalf("slept %d times, want 2", len(*sleeps))
	}
	for _, d := range *sleeps {
		if d < 50*time.Microsecond {
			t.Errorf("latch %v shorter than 50us", d)
		}
	}
}

func TestOutOfBounds(t *testing.T) {
	m, _, _ := newTestMatrix(t, 5, 5)
	m.Fill(types.Color{G: 5})

	if err := m.SetPixel(25, 1, 1, 1); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("SetPixel(25) error = %v, want ErrOutOfBounds", err)
	}
	if err := m.SetPixel(-1, 1, 1, 1); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("SetPixel(-1) error = %v, want ErrOutOfBounds", err)
	}
	if err := m.SetPixelXY(5, 0, DigitColor); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("SetPixelXY(5, 0) error = %v, want ErrOutOfBounds", err)
	}
	if _, err := m.PixelAt(25); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("PixelAt(25) error = %v, want ErrOutOfBounds", err)
	}

	for i := 0; i < m.Len(); i++ {
		c, _ := m.PixelAt(i)
		if c != (types.Color{G: 5}) {
			t.Fatalf("pixel %d changed to %v by rejected writes", i, c)
		}
	}
}

func TestDisplayDigit(t *testing.T) {
	m, rec, _ := newTestMatrix(t, 5, 5)

	if err := m.DisplayDigit(5); err != nil {
		t.Fatalf("DisplayDigit(5) error = %v", err)
	}

	// "5" is a full top row, the left column of row 1, a full middle row,
	// the right column of row 3 and a full bottom row.
	want := map[int]bool{}
	for _, i := range []int{0, 1, 2, 3, 4, 9, 10, 11, 12, 13, 14, 15, 20, 21, 22, 23, 24} {
		want[i] = true
	}

	got := rec.bytes()
	if len(got) != 75 {
		t.Fatalf("flushed %d bytes, want 75", len(got))
	}
	for i := 0; i < 25; i++ {
		g, r, b := got[3*i], got[3*i+1], got[3*i+2]
		if want[i] {
			if g != 0 || r != 255 || b != 0 {
				t.Errorf("index %d = (g %d, r %d, b %d), want red", i, g, r, b)
			}
		} else if g != 0 || r != 0 || b != 0 {
			t.Errorf("index %d = (g %d, r %d, b %d), want off", i, g, r, b)
		}
	}
}

func TestDisplayDigitReplacesFrame(t *testing.T) {
	m, rec, _ := newTestMatrix(t, 5, 5)

	m.Fill(types.Color{B: 200})
	if err := m.DisplayDigit(1); err != nil {
		t.Fatalf("DisplayDigit(1) error = %v", err)
	}
	for i, b := range rec.bytes() {
		if i%3 == 2 && b != 0 {
			t.Fatalf("blue byte %d = %d, previous frame not cleared", i, b)
		}
	}
}

func TestDisplayDigitInvalid(t *testing.T) {
	m, rec, _ := newTestMatrix(t, 5, 5)

	for _, v := range []int{-1, 10} {
		if err := m.DisplayDigit(v); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("DisplayDigit(%d) error = %v, want ErrOutOfBounds", v, err)
		}
	}
	if len(rec.words) != 0 {
		t.Errorf("invalid digits transmitted %d words", len(rec.words))
	}
}

func TestSetPixelHSV(t *testing.T) {
	m, _, _ := newTestMatrix(t, 5, 5)

	if err := m.SetPixelHSV(2, 1, 0, 255, 255); err != nil {
		t.Fatalf("SetPixelHSV() error = %v", err)
	}
	c, _ := m.PixelAt(Serpentine(2, 1, 5))
	if c == types.Off {
		t.Error("fully saturated bright HSV colour stored as off")
	}
}

// memRegs is a register window where every FIFO reports room
type memRegs struct {
	mem    map[uint32]uint32
	writes int
}

func (m *memRegs) Read32(offset uint32) uint32 { return m.mem[offset] }

func (m *memRegs) Write32(offset, value uint32) {
	m.mem[offset] = value
	m.writes++
}

func TestInitMatrix(t *testing.T) {
	regs := &memRegs{mem: make(map[uint32]uint32)}
	block := pio.New(regs, 200000000, 4)
	cfg := types.MatrixConfig{Width: 5, Height: 5, Pin: 7, Frequency: 800000, LatchUS: 120}

	m, err := InitMatrix(block, cfg)
	if err != nil {
		t.Fatalf("InitMatrix() error = %v", err)
	}
	defer m.Close()

	if m.Len() != 25 {
		t.Errorf("Len() = %d, want 25", m.Len())
	}
	if m.latch != 120*time.Microsecond {
		t.Errorf("latch = %v, want 120us", m.latch)
	}
	for i := 0; i < m.Len(); i++ {
		if c, _ := m.PixelAt(i); c != types.Off {
			t.Fatalf("pixel %d = %v after init, want off", i, c)
		}
	}

	m.sleep = func(time.Duration) {}
	before := regs.writes
	m.Flush()
	if got := regs.writes - before; got != 75 {
		t.Errorf("Flush() wrote %d FIFO words, want 75", got)
	}
}

func TestInitMatrixNoStateMachine(t *testing.T) {
	regs := &memRegs{mem: make(map[uint32]uint32)}
	block := pio.New(regs, 200000000, 1)
	cfg := types.MatrixConfig{Width: 5, Height: 5, Pin: 7, Frequency: 800000}

	first, err := InitMatrix(block, cfg)
	if err != nil {
		t.Fatalf("InitMatrix() error = %v", err)
	}
	defer first.Close()

	if _, err := InitMatrix(block, cfg); !errors.Is(err, pio.ErrNoFreeStateMachine) {
		t.Errorf("second InitMatrix() error = %v, want ErrNoFreeStateMachine", err)
	}
}
