package main

import (
	"io"
	"log/slog"

	"github.com/input-output-hk/crx-mirror/config"
)

// newLogger builds the process logger: text records unless structured logs
// are requested, debug level when cfg.Debug is set.
func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.UnstructuredLogs {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}
