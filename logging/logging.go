// Package logging builds the structured logger shared by every package.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// serviceHandler stamps every record with service and version.
type serviceHandler struct {
	handler slog.Handler
	service string
	version string
}

// Handle adds service attributes to the record.
func (h *serviceHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(
		slog.String("service", h.service),
		slog.String("version", h.version),
	)
	return h.handler.Handle(ctx, r)
}

// Enabled returns true if the level is enabled.
func (h *serviceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs returns a new handler with the given attributes.
func (h *serviceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &serviceHandler{handler: h.handler.WithAttrs(attrs), service: h.service, version: h.version}
}

// WithGroup returns a new handler with the given group.
func (h *serviceHandler) WithGroup(name string) slog.Handler {
	return &serviceHandler{handler: h.handler.WithGroup(name), service: h.service, version: h.version}
}

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup creates a configured slog.Logger.
// format: "json" or "text" (defaults to "json" if empty)
// If w is nil, writes to os.Stderr.
func Setup(service, version, format string, level slog.Level, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	if format == "text" {
		base = slog.NewTextHandler(w, opts)
	} else {
		base = slog.NewJSONHandler(w, opts)
	}

	return slog.New(&serviceHandler{handler: base, service: service, version: version})
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
