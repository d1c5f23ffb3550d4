package main

import (
	"io"
	"log/slog"

	"scim-patch/internal/config"
)

// newLogger builds the command logger. Times are dropped from text output.
func newLogger(w io.Writer, c config.Log) (*slog.Logger, error) {
	level, err := c.SlogLevel()
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}

	if c.Format == config.FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}

	opts.ReplaceAttr = func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey {
			return slog.Attr{}
		}

		return a
	}

	return slog.New(slog.NewTextHandler(w, opts)), nil
}
