package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/pflag"

	"github.com/fkcurrie/glyphboard/internal/config"
	"github.com/fkcurrie/glyphboard/internal/display"
	"github.com/fkcurrie/glyphboard/internal/logging"
	"github.com/fkcurrie/glyphboard/internal/types"
	"github.com/fkcurrie/glyphboard/pkg/pio"
)

var (
	configPath = "config.json"
	hold       = 2 * time.Second
	verbose    = false
)

func init() {
	pflag.StringVarP(&configPath, "config", "c", configPath, "path to config file")
	pflag.DurationVar(&hold, "hold", hold, "time each pattern stays on")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose logging")
}

func main() {
	pflag.Parse()
	logging.Setup(verbose)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		slog.Warn("failed to load config, using defaults", "path", configPath, "err", err)
		cfg = config.DefaultConfig()
	}
	if err := cfg.LoadEnv(); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
	fmt.Println("Test completed successfully")
}

func run(ctx context.Context, cfg *config.Config) error {
	block, err := pio.Open(cfg.Matrix.PIO)
	if err != nil {
		return err
	}
	defer block.Close()

	matrix, err := display.InitMatrix(block, cfg.Matrix)
	if err != nil {
		return err
	}
	defer func() {
		matrix.Clear()
		matrix.Flush()
		matrix.Close()
	}()

	w, h := matrix.GetDimensions()

	for _, c := range []struct {
		name  string
		color types.Color
	}{
		{"red", types.Color{R: 255}},
		{"green", types.Color{G: 255}},
		{"blue", types.Color{B: 255}},
	} {
		slog.Info("setting all pixels", "color", c.name)
		matrix.Fill(c.color)
		matrix.Flush()
		if err := pause(ctx); err != nil {
			return err
		}
	}

	slog.Info("setting alternating pixels")
	for i := 0; i < matrix.Len(); i++ {
		c := types.Off
		if i%2 == 0 {
			c = types.Color{R: 255, G: 255, B: 255}
		}
		if err := matrix.SetPixel(i, c.R, c.G, c.B); err != nil {
			return err
		}
	}
	matrix.Flush()
	if err := pause(ctx); err != nil {
		return err
	}

	slog.Info("sweeping hue")
	for step := 0; step < 64; step++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				hue := uint16(step*1024 + (x+y)*4096)
				if err := matrix.SetPixelHSV(x, y, hue, 255, 64); err != nil {
					return err
				}
			}
		}
		matrix.Flush()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(30 * time.Millisecond):
		}
	}

	for v := 0; v <= 9; v++ {
		slog.Info("showing digit", "digit", v)
		if err := matrix.DisplayDigit(v); err != nil {
			return err
		}
		if err := pause(ctx); err != nil {
			return err
		}
	}
	return nil
}

func pause(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(hold):
		return nil
	}
}
