package display

import (
	"errors"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"

	"github.com/fkcurrie/glyphboard/internal/types"
)

// OLED is an SSD1306 panel on an I2C bus
type OLED struct {
	bus i2c.BusCloser
	dev *ssd1306.Dev
}

// OpenOLED opens the I2C bus named in cfg ("" for the first one), sets its
// clock and initialises the controller.
func OpenOLED(cfg types.DisplayConfig) (*OLED, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %q: %w", cfg.Bus, err)
	}

	if cfg.ClockKHz > 0 {
		if err := bus.SetSpeed(physic.Frequency(cfg.ClockKHz) * physic.KiloHertz); err != nil {
			slog.Warn("failed to set I2C clock", "khz", cfg.ClockKHz, "err", err)
		}
	}

	opts := ssd1306.DefaultOpts
	opts.W = cfg.Width
	opts.H = cfg.Height
	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to initialize SSD1306: %w", err)
	}

	slog.Debug("opened OLED", "bus", bus.String(), "width", cfg.Width, "height", cfg.Height)
	return &OLED{bus: bus, dev: dev}, nil
}

// Write pushes a full frame in page layout to the panel
func (o *OLED) Write(pixels []byte) (int, error) {
	return o.dev.Write(pixels)
}

// Close blanks the panel and releases the bus
func (o *OLED) Close() error {
	return errors.Join(o.dev.Halt(), o.bus.Close())
}
