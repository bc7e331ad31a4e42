package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/fkcurrie/glyphboard/internal/types"
)

// Environment variables that override values from the config file.
const (
	EnvConsoleDevice = "GLYPHBOARD_CONSOLE_DEVICE"
	EnvGPIOChip      = "GLYPHBOARD_GPIO_CHIP"
	EnvPIOBase       = "GLYPHBOARD_PIO_BASE"
	EnvI2CBus        = "GLYPHBOARD_I2C_BUS"
)

// Config represents the application configuration
type Config struct {
	Matrix  types.MatrixConfig  `json:"matrix"`
	Display types.DisplayConfig `json:"display"`
	Input   types.InputConfig   `json:"input"`
	Console types.ConsoleConfig `json:"console"`
	IdleMS  int                 `json:"idle_ms"`
}

// LoadConfig loads the configuration from a file. Values absent from the
// file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := DefaultConfig()
	if err := json.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return config, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Matrix: types.MatrixConfig{
			Width:     5,
			Height:    5,
			Pin:       7,
			Frequency: 800000,
			LatchUS:   100,
			PIO: types.PIOConfig{
				BaseAddr:    0x1f00178000,
				Size:        0x1000,
				ClockHz:     200000000,
				NumMachines: 4,
			},
		},
		Display: types.DisplayConfig{
			Width:    128,
			Height:   64,
			Bus:      "",
			ClockKHz: 400,
			OriginX:  5,
			OriginY:  0,
		},
		Input: types.InputConfig{
			Chip:       "gpiochip0",
			DebounceMS: 50,
			Buttons: []types.ButtonConfig{
				{Name: "A", Pin: 6, IndicatorPin: 11, Indicator: "Green LED"},
				{Name: "B", Pin: 5, IndicatorPin: 12, Indicator: "Blue LED"},
			},
			SparePins: []int{13},
		},
		Console: types.ConsoleConfig{
			Device:  "-",
			Baud:    115200,
			MaxLine: 19,
			Prompt:  "Type a character or string: ",
		},
		IdleMS: 100,
	}
}

// LoadEnv reads an optional .env file and applies GLYPHBOARD_* overrides.
func (c *Config) LoadEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}

	if v := os.Getenv(EnvConsoleDevice); v != "" {
		c.Console.Device = v
	}
	if v := os.Getenv(EnvGPIOChip); v != "" {
		c.Input.Chip = v
	}
	if v := os.Getenv(EnvI2CBus); v != "" {
		c.Display.Bus = v
	}
	if v := os.Getenv(EnvPIOBase); v != "" {
		base, err := strconv.ParseUint(v, 0, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPIOBase, v, err)
		}
		c.Matrix.PIO.BaseAddr = base
	}
	return nil
}

// Validate checks the configuration for values the hardware cannot honour
func (c *Config) Validate() error {
	var errs []error
	if c.Matrix.Width <= 0 || c.Matrix.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid matrix dimensions: %dx%d", c.Matrix.Width, c.Matrix.Height))
	}
	if c.Matrix.Frequency <= 0 {
		errs = append(errs, fmt.Errorf("invalid matrix frequency: %d", c.Matrix.Frequency))
	}
	if c.Matrix.LatchUS < 50 {
		errs = append(errs, fmt.Errorf("latch time must be at least 50us, got %dus", c.Matrix.LatchUS))
	}
	if c.Matrix.PIO.NumMachines <= 0 {
		errs = append(errs, fmt.Errorf("invalid state machine count: %d", c.Matrix.PIO.NumMachines))
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 || c.Display.Height%8 != 0 {
		errs = append(errs, fmt.Errorf("invalid display dimensions: %dx%d", c.Display.Width, c.Display.Height))
	}
	if c.Input.DebounceMS < 0 {
		errs = append(errs, fmt.Errorf("invalid debounce window: %dms", c.Input.DebounceMS))
	}
	if c.Console.MaxLine <= 0 {
		errs = append(errs, fmt.Errorf("invalid console line length: %d", c.Console.MaxLine))
	}
	for _, b := range c.Input.Buttons {
		if b.Pin < 0 || b.IndicatorPin < 0 {
			errs = append(errs, fmt.Errorf("button %s: pins must be non-negative", b.Name))
		}
	}
	return errors.Join(errs...)
}

// Debounce returns the debounce window as a duration
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Input.DebounceMS) * time.Millisecond
}

// Latch returns the LED protocol reset time as a duration
func (c *Config) Latch() time.Duration {
	return time.Duration(c.Matrix.LatchUS) * time.Microsecond
}

// Idle returns the main loop idle delay as a duration
func (c *Config) Idle() time.Duration {
	return time.Duration(c.IdleMS) * time.Millisecond
}
