package gpio

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// Output represents a GPIO line driven by this process
type Output struct {
	line   *gpiocdev.Line
	offset int
	mu     sync.Mutex
	state  bool
}

// NewOutput requests offset on chip as an output driven low
func NewOutput(chip string, offset int) (*Output, error) {
	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("failed to request output %s:%d: %w", chip, offset, err)
	}

	slog.Debug("requested GPIO output", "chip", chip, "offset", offset)
	return &Output{
		line:   line,
		offset: offset,
	}, nil
}

// Set drives the output high (true) or low (false)
func (o *Output) Set(on bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.set(on)
}

func (o *Output) set(on bool) error {
	value := 0
	if on {
		value = 1
	}
	if err := o.line.SetValue(value); err != nil {
		return fmt.Errorf("failed to set GPIO %d to %d: %w", o.offset, value, err)
	}
	o.state = on
	return nil
}

// Toggle inverts the output and returns the new state
func (o *Output) Toggle() (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.set(!o.state); err != nil {
		return o.state, err
	}
	return o.state, nil
}

// State returns the last value written
func (o *Output) State() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Close drives the output low and releases the line
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.line == nil {
		return nil
	}
	if err := o.line.SetValue(0); err != nil {
		slog.Warn("failed to drive GPIO low on close", "offset", o.offset, "err", err)
	}
	err := o.line.Close()
	o.line = nil
	return err
}

// EdgeFunc is called from the line's event goroutine with the kernel
// timestamp of each edge.
type EdgeFunc func(ts time.Duration)

// Input represents a pull-up input watched for rising edges
type Input struct {
	line   *gpiocdev.Line
	offset int
}

// NewInput requests offset on chip as a pull-up input and calls onEdge for
// every rising edge. onEdge runs on the event goroutine and must not block.
func NewInput(chip string, offset int, onEdge EdgeFunc) (*Input, error) {
	handler := func(evt gpiocdev.LineEvent) {
		if evt.Type != gpiocdev.LineEventRisingEdge {
			return
		}
		onEdge(evt.Timestamp)
	}

	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithEventHandler(handler))
	if err != nil {
		return nil, fmt.Errorf("failed to request input %s:%d: %w", chip, offset, err)
	}

	slog.Debug("watching GPIO input", "chip", chip, "offset", offset)
	return &Input{
		line:   line,
		offset: offset,
	}, nil
}

// Value reads the current level of the input
func (i *Input) Value() (int, error) {
	return i.line.Value()
}

// Close stops watching the input and releases the line
func (i *Input) Close() error {
	if i.line == nil {
		return nil
	}
	err := i.line.Close()
	i.line = nil
	return err
}
