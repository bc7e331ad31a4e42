// Package panel sequences console input, the LED matrix, the OLED and the
// push buttons.
package panel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fkcurrie/glyphboard/internal/debounce"
	"github.com/fkcurrie/glyphboard/internal/glyph"
	"github.com/fkcurrie/glyphboard/internal/types"
)

// DefaultIdle is the delay between button polls
const DefaultIdle = 100 * time.Millisecond

// TextDisplay shows a line of text
type TextDisplay interface {
	RenderFrame(text string) error
}

// DigitDisplay shows a single digit
type DigitDisplay interface {
	DisplayDigit(value int) error
}

// Messenger reports status lines back to the operator
type Messenger interface {
	Println(msg string) error
}

// Button binds a debounce gate to the indicator it toggles
type Button struct {
	Name      string
	Gate      *debounce.Gate
	Indicator types.Indicator
	// Label names the indicator in status messages, e.g. "Green LED".
	Label string
}

// Controller runs the main loop
type Controller struct {
	text    TextDisplay
	digits  DigitDisplay
	out     Messenger
	buttons []Button
	idle    time.Duration
}

// New creates a controller. A non-positive idle uses DefaultIdle.
func New(text TextDisplay, digits DigitDisplay, out Messenger, buttons []Button, idle time.Duration) *Controller {
	if idle <= 0 {
		idle = DefaultIdle
	}
	return &Controller{
		text:    text,
		digits:  digits,
		out:     out,
		buttons: buttons,
		idle:    idle,
	}
}

// HandleLine shows line on the OLED and, when it starts with a digit, shows
// that digit on the matrix.
func (c *Controller) HandleLine(line string) error {
	if line == "" {
		return nil
	}
	if err := c.text.RenderFrame(line); err != nil {
		return err
	}

	class, offset := glyph.Classify(rune(line[0]))
	if class != glyph.Digit {
		return nil
	}
	return c.digits.DisplayDigit(offset)
}

// Poll takes every pending button event, toggles the matching indicator and
// reports the new state on the console and the OLED.
func (c *Controller) Poll() error {
	for _, b := range c.buttons {
		if !b.Gate.TryTake() {
			continue
		}

		on, err := b.Indicator.Toggle()
		if err != nil {
			return fmt.Errorf("button %s: %w", b.Name, err)
		}
		msg := StatusMessage(b.Label, on)
		slog.Debug("button pressed", "button", b.Name, "indicator", b.Label, "on", on)

		if err := c.out.Println(msg); err != nil {
			slog.Warn("failed to report status", "err", err)
		}
		if err := c.text.RenderFrame(msg); err != nil {
			return err
		}
	}
	return nil
}

// StatusMessage formats the line reported when an indicator changes
func StatusMessage(label string, on bool) string {
	state := "off"
	if on {
		state = "on"
	}
	return fmt.Sprintf("%s %s", label, state)
}

// Run handles lines as they arrive and polls the buttons every idle period
// until ctx is done. Errors from a single line or poll are logged and the
// loop continues.
func (c *Controller) Run(ctx context.Context, lines <-chan string) error {
	ticker := time.NewTicker(c.idle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if err := c.HandleLine(line); err != nil {
				slog.Error("failed to show line", "line", line, "err", err)
			}
		case <-ticker.C:
			if err := c.Poll(); err != nil {
				slog.Error("failed to handle button", "err", err)
			}
		}
	}
}
