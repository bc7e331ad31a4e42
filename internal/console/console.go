// Package console reads text lines from a serial port or standard input and
// writes status messages back to it.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/pkg/term"
	xterm "golang.org/x/term"

	"github.com/fkcurrie/glyphboard/internal/types"
)

// StdioDevice selects standard input and output instead of a serial port
const StdioDevice = "-"

// Console is a line oriented text console
type Console struct {
	r           *bufio.Reader
	mu          sync.Mutex
	w           io.Writer
	closer      io.Closer
	prompt      string
	interactive bool
	newline     string
	maxLine     int
}

// Open opens the configured serial device in raw mode, or stdio when the
// device is "-".
func Open(cfg types.ConsoleConfig) (*Console, error) {
	if cfg.Device == "" || cfg.Device == StdioDevice {
		c := New(os.Stdin, os.Stdout, cfg)
		c.interactive = xterm.IsTerminal(int(os.Stdin.Fd()))
		return c, nil
	}

	t, err := term.Open(cfg.Device, term.Speed(cfg.Baud), term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("failed to open console %s: %w", cfg.Device, err)
	}

	slog.Debug("opened serial console", "device", cfg.Device, "baud", cfg.Baud)
	c := New(t, t, cfg)
	c.closer = t
	c.interactive = true
	// Raw mode does no output processing.
	c.newline = "\r\n"
	return c, nil
}

// New creates a console over r and w. It does not prompt until
// SetInteractive is called.
func New(r io.Reader, w io.Writer, cfg types.ConsoleConfig) *Console {
	return &Console{
		r:       bufio.NewReader(r),
		w:       w,
		prompt:  cfg.Prompt,
		newline: "\n",
		maxLine: cfg.MaxLine,
	}
}

// SetInteractive enables or disables the prompt written before each read
func (c *Console) SetInteractive(on bool) {
	c.interactive = on
}

// Println writes msg followed by a line ending
func (c *Console) Println(msg string) error {
	return c.write(msg + c.newline)
}

func (c *Console) write(s string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := io.WriteString(c.w, s); err != nil {
		return fmt.Errorf("failed to write console: %w", err)
	}
	return nil
}

// Sanitize cuts line at the first CR or LF and truncates it to limit bytes.
// A non-positive limit disables truncation.
func Sanitize(line string, limit int) string {
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	if limit > 0 && len(line) > limit {
		line = line[:limit]
	}
	return line
}

// ReadLines sends every non-empty sanitized line to out until the input
// ends or ctx is done. The rest of an over-long line is discarded. A
// blocked read is abandoned, not interrupted, when ctx is done; Close the
// console to release it.
func (c *Console) ReadLines(ctx context.Context, out chan<- string) error {
	errc := make(chan error, 1)
	go func() {
		errc <- c.readLines(ctx, out)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return nil
	}
}

func (c *Console) readLines(ctx context.Context, out chan<- string) error {
	for {
		if c.interactive && c.prompt != "" {
			if err := c.write(c.prompt); err != nil {
				return err
			}
		}

		raw, err := c.r.ReadString('\n')
		if line := Sanitize(raw, c.maxLine); line != "" {
			select {
			case out <- line:
			case <-ctx.Done():
				return nil
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read console: %w", err)
		}
	}
}

// Close releases the serial device, if one was opened
func (c *Console) Close() error {
	if c.closer == nil {
		return nil
	}
	err := c.closer.Close()
	c.closer = nil
	return err
}
