package types

// Color is an 8-bit-per-channel RGB value as stored in the LED frame.
type Color struct {
	R uint8
	G uint8
	B uint8
}

// Off is the colour of an unlit LED.
var Off = Color{}

// Transmitter accepts words for the LED protocol generator.
//
// Put blocks while the generator's output queue is full and returns once the
// word has been queued.
type Transmitter interface {
	Put(word uint32)
}

// Panel receives a complete monochrome framebuffer in the controller's
// native byte layout.
type Panel interface {
	Write(pixels []byte) (int, error)
}

// Indicator is a digital output that flips on every accepted input event.
type Indicator interface {
	// Toggle inverts the output and returns the new state
	Toggle() (bool, error)
}
