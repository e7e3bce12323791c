// Package logging builds the CLI's slog logger and carries it in a context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/pterm/pterm"
)

type ctxKey struct{}

// New returns a logger that renders through pterm at the given level
// (debug, info, warn, error). Unknown levels fall back to warn so routine
// commands stay quiet.
func New(w io.Writer, level string) *slog.Logger {
	logger := pterm.DefaultLogger.
		WithWriter(w).
		WithLevel(ParseLevel(level))
	return slog.New(pterm.NewSlogHandler(logger))
}

// ParseLevel maps a level name to a pterm log level.
func ParseLevel(level string) pterm.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return pterm.LogLevelDebug
	case "info":
		return pterm.LogLevelInfo
	case "error":
		return pterm.LogLevelError
	case "off", "disabled":
		return pterm.LogLevelDisabled
	default:
		return pterm.LogLevelWarn
	}
}

func IntoContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
