package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/fkcurrie/glyphboard/internal/config"
	"github.com/fkcurrie/glyphboard/internal/console"
	"github.com/fkcurrie/glyphboard/internal/debounce"
	"github.com/fkcurrie/glyphboard/internal/display"
	"github.com/fkcurrie/glyphboard/internal/logging"
	"github.com/fkcurrie/glyphboard/internal/panel"
	"github.com/fkcurrie/glyphboard/pkg/gpio"
	"github.com/fkcurrie/glyphboard/pkg/pio"
)

var (
	configPath = "config.json"
	envFile    = ".env"
	device     = ""
	verbose    = false
)

func init() {
	pflag.StringVarP(&configPath, "config", "c", configPath, "path to configuration file")
	pflag.StringVar(&envFile, "env", envFile, "path to .env file with GLYPHBOARD_* overrides")
	pflag.StringVar(&device, "console", device, `console device, "-" for stdin`)
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose logging")
}

func main() {
	pflag.Parse()
	logging.Setup(verbose)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		log.Fatal(err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("config file not found, using defaults", "path", configPath)
		cfg = config.DefaultConfig()
	} else if err != nil {
		return nil, err
	}

	if err := cfg.LoadEnv(envFile); err != nil {
		return nil, err
	}
	if device != "" {
		cfg.Console.Device = device
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var closers []io.Closer
	defer func() {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i].Close())
		}
		if cerr := errors.Join(errs...); cerr != nil {
			slog.Warn("errors during shutdown", "err", cerr)
		}
	}()

	block, err := pio.Open(cfg.Matrix.PIO)
	if err != nil {
		return err
	}
	closers = append(closers, block)

	matrix, err := display.InitMatrix(block, cfg.Matrix)
	if errors.Is(err, pio.ErrNoFreeStateMachine) {
		return fmt.Errorf("no PIO state machine available for the LED matrix: %w", err)
	} else if err != nil {
		return err
	}
	closers = append(closers, matrix)
	matrix.Clear()
	matrix.Flush()

	oled, err := display.OpenOLED(cfg.Display)
	if err != nil {
		return err
	}
	closers = append(closers, oled)

	renderer := display.NewRenderer(cfg.Display, oled)
	if err := renderer.RenderFrame(""); err != nil {
		return err
	}
	if cfg.Display.Splash != "" {
		if err := renderer.DrawSplash(cfg.Display.Splash); err != nil {
			slog.Warn("failed to draw splash", "err", err)
		}
	}

	for _, pin := range cfg.Input.SparePins {
		out, err := gpio.NewOutput(cfg.Input.Chip, pin)
		if err != nil {
			return err
		}
		closers = append(closers, out)
	}

	var buttons []panel.Button
	for _, bc := range cfg.Input.Buttons {
		indicator, err := gpio.NewOutput(cfg.Input.Chip, bc.IndicatorPin)
		if err != nil {
			return err
		}
		closers = append(closers, indicator)

		gate := debounce.NewGate(cfg.Debounce())
		in, err := gpio.NewInput(cfg.Input.Chip, bc.Pin, gate.Handler())
		if err != nil {
			return err
		}
		closers = append(closers, in)

		buttons = append(buttons, panel.Button{
			Name:      bc.Name,
			Gate:      gate,
			Indicator: indicator,
			Label:     bc.Indicator,
		})
	}

	con, err := console.Open(cfg.Console)
	if err != nil {
		return err
	}
	closers = append(closers, con)

	slog.Info("glyphboard running",
		"matrix", fmt.Sprintf("%dx%d", cfg.Matrix.Width, cfg.Matrix.Height),
		"console", cfg.Console.Device,
		"buttons", len(buttons))

	ctrl := panel.New(renderer, matrix, con, buttons, cfg.Idle())
	lines := make(chan string)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return con.ReadLines(ctx, lines)
	})
	g.Go(func() error {
		return ctrl.Run(ctx, lines)
	})

	err = g.Wait()
	slog.Info("shutting down")
	return err
}
