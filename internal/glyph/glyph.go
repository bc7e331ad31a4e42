// Package glyph holds the fixed-width bitmap fonts used by the display
// renderer and the LED matrix.
//
// Text glyphs are 5 columns by 7 rows, column-encoded: bit row of byte col
// lights pixel (col, row). Digit glyphs are 5 by 5, row-encoded: bit 4-x of
// byte y lights pixel (x, y).
package glyph

const (
	// TextWidth and TextHeight are the dimensions of a text glyph
	TextWidth  = 5
	TextHeight = 7

	// DigitSize is the side of a square digit glyph
	DigitSize = 5
)

// Class is the lookup table a character belongs to
type Class uint8

const (
	Unsupported Class = iota
	Upper
	Lower
	Digit
)

func (c Class) String() string {
	switch c {
	case Upper:
		return "upper"
	case Lower:
		return "lower"
	case Digit:
		return "digit"
	default:
		return "unsupported"
	}
}

// Text is a 5x7 column-encoded glyph
type Text [TextWidth]byte

// On reports whether the pixel at (col, row) is lit.
func (g Text) On(col, row int) bool {
	if col < 0 || col >= TextWidth || row < 0 || row >= TextHeight {
		return false
	}
	return (g[col]>>uint(row))&0x01 != 0
}

// DigitGlyph is a 5x5 row-encoded glyph
type DigitGlyph [DigitSize]uint8

// On reports whether the pixel at (x, y) is lit.
func (g DigitGlyph) On(x, y int) bool {
	if x < 0 || x >= DigitSize || y < 0 || y >= DigitSize {
		return false
	}
	return g[y]&(1<<uint(DigitSize-1-x)) != 0
}

// Classify returns the class of c and its offset from the class base
// character.
func Classify(c rune) (Class, int) {
	switch {
	case c >= 'A' && c <= 'Z':
		return Upper, int(c - 'A')
	case c >= 'a' && c <= 'z':
		return Lower, int(c - 'a')
	case c >= '0' && c <= '9':
		return Digit, int(c - '0')
	default:
		return Unsupported, 0
	}
}

// Lookup returns the text glyph for c. Only letters have text glyphs.
func Lookup(c rune) (Text, bool) {
	class, offset := Classify(c)
	switch class {
	case Upper:
		return upper[offset], true
	case Lower:
		return lower[offset], true
	default:
		return Text{}, false
	}
}

// Digits returns the matrix glyph for a value in 0..9.
func Digits(v int) (DigitGlyph, bool) {
	if v < 0 || v >= len(digits) {
		return DigitGlyph{}, false
	}
	return digits[v], true
}
