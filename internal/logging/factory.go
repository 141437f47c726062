package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Supported values for New's format argument.
const (
	FormatJSON    = "json"
	FormatText    = "text"
	FormatConsole = "console"
	FormatZerolog = "zerolog"
)

// New builds a Logger writing to w. json and text use slog handlers;
// console and zerolog use zerolog (human-readable and JSON respectively).
func New(format, level string, w io.Writer) (Logger, error) {
	switch strings.ToLower(format) {
	case "", FormatJSON, FormatText:
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(orDefault(level, "info"))); err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, err)
		}
		opts := &slog.HandlerOptions{Level: lvl, ReplaceAttr: redactAttr}
		if strings.EqualFold(format, FormatText) {
			return NewSlogLogger(slog.New(slog.NewTextHandler(w, opts))), nil
		}
		return NewSlogLogger(slog.New(slog.NewJSONHandler(w, opts))), nil

	case FormatConsole, FormatZerolog:
		lvl, err := zerolog.ParseLevel(strings.ToLower(orDefault(level, "info")))
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, err)
		}
		out := w
		if strings.EqualFold(format, FormatConsole) {
			out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}
		}
		return NewZerologLogger(zerolog.New(out).Level(lvl).With().Timestamp().Logger()), nil
	}

	return nil, fmt.Errorf("unknown log format %q", format)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
