package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/fkcurrie/glyphboard/internal/config"
	"github.com/fkcurrie/glyphboard/internal/debounce"
	"github.com/fkcurrie/glyphboard/internal/logging"
	"github.com/fkcurrie/glyphboard/internal/panel"
	"github.com/fkcurrie/glyphboard/pkg/gpio"
)

var (
	configPath = "config.json"
	verbose    = false
)

func init() {
	pflag.StringVarP(&configPath, "config", "c", configPath, "path to config file")
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

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("starting button test", "chip", cfg.Input.Chip, "debounce", cfg.Debounce())

	type watched struct {
		name      string
		gate      *debounce.Gate
		indicator *gpio.Output
		label     string
	}
	var buttons []watched

	for _, bc := range cfg.Input.Buttons {
		out, err := gpio.NewOutput(cfg.Input.Chip, bc.IndicatorPin)
		if err != nil {
			log.Fatal(err)
		}
		defer out.Close()

		gate := debounce.NewGate(cfg.Debounce())
		in, err := gpio.NewInput(cfg.Input.Chip, bc.Pin, gate.Handler())
		if err != nil {
			log.Fatal(err)
		}
		defer in.Close()

		buttons = append(buttons, watched{bc.Name, gate, out, bc.Indicator})
		slog.Info("watching button", "button", bc.Name, "pin", bc.Pin, "indicator", bc.IndicatorPin)
	}

	ticker := time.NewTicker(cfg.Idle())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("shutting down")
			return
		case <-ticker.C:
			for _, b := range buttons {
				if !b.gate.TryTake() {
					continue
				}
				on, err := b.indicator.Toggle()
				if err != nil {
					slog.Error("failed to toggle indicator", "button", b.name, "err", err)
					continue
				}
				slog.Info(panel.StatusMessage(b.label, on), "button", b.name)
			}
		}
	}
}
