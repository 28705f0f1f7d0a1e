package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup installs the process-wide slog logger. Production gets JSON lines,
// everything else the human readable text handler.
func Setup(level slog.Level, production bool) *slog.Logger {
	logger := New(os.Stdout, level, production)
	slog.SetDefault(logger)
	return logger
}

func New(w io.Writer, level slog.Level, production bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if production {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
