// Package logging installs the process-wide structured logger.
package logging

import (
	"log"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Setup sends slog output to stderr, coloured when stderr is a terminal,
// and makes it the default logger.
func Setup(verbose bool) *slog.Logger {
	log.SetFlags(0)

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)
	return logger
}
