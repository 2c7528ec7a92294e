// Package logging builds the process-wide slog logger from configuration.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ugur10/go-bookshelf/internal/config"
)

// New returns a logger writing to w at the configured level and format.
func New(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLogLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}

// Open resolves the log destination. When cfg.File is set the file is opened
// for appending; otherwise fallback is used. The returned close function is
// never nil.
func Open(cfg config.LogConfig, fallback io.Writer) (io.Writer, func() error, error) {
	if cfg.File == "" {
		return fallback, func() error { return nil }, nil
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, f.Close, nil
}
