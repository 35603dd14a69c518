// Package errutil holds helpers for logging and asserting on oops errors.
package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs err at error level, expanding oops code and context.
func LogError(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, Attrs(err)...)
}

// LogWarn is LogError at warn level, for failures the game shrugs off.
func LogWarn(logger *slog.Logger, msg string, err error) {
	logger.Warn(msg, Attrs(err)...)
}

// Attrs turns an error into slog key/value pairs.
func Attrs(err error) []any {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return []any{"error", err}
	}
	attrs := []any{"error", oopsErr.Error()}
	if code := oopsErr.Code(); code != nil {
		attrs = append(attrs, "code", code)
	}
	if ctx := oopsErr.Context(); len(ctx) > 0 {
		attrs = append(attrs, "context", ctx)
	}
	return attrs
}

// Code returns the oops code of err, or "" when err carries none.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	if s, ok := oopsErr.Code().(string); ok {
		return s
	}
	return ""
}
