// Package log configures structured logging for cpd using log/slog.
package log

import (
	"io"
	"log/slog"
	"os"
)

// Level picks the handler level for the verbosity flags. Quiet wins over
// verbose.
//
//   - quiet mode:   only ERROR messages
//   - normal mode:  WARN and above
//   - verbose mode: DEBUG and above
func Level(verbose, quiet bool) slog.Level {
	switch {
	case quiet:
		return slog.LevelError
	case verbose:
		return slog.LevelDebug
	default:
		return slog.LevelWarn
	}
}

// Setup installs a text handler on stderr as the default slog logger.
func Setup(verbose, quiet bool) *slog.Logger {
	return SetupWriter(os.Stderr, verbose, quiet)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, verbose, quiet bool) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: Level(verbose, quiet),
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
