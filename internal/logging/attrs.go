package logging

import (
	"context"
	"log/slog"
)

type Attr = slog.Attr

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

// Error renders err under the "error" key; a nil error is logged as "<nil>".
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger tags logger with the component field. A nil logger
// becomes a no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

var warnDefaults = []Attr{
	String(FieldErrorHint, "check logs for details"),
	String(FieldImpact, "presence may be stale until the next tick"),
}

// WarnWithContext logs a warning that always carries event_type, error_hint
// and impact. Fields the caller omits are filled from defaults.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	present := make(map[string]struct{}, len(attrs))
	args := make([]any, 0, len(attrs)+3)
	for _, attr := range attrs {
		present[attr.Key] = struct{}{}
		args = append(args, attr)
	}
	if _, ok := present[FieldEventType]; !ok {
		args = append(args, String(FieldEventType, eventType))
	}
	for _, def := range warnDefaults {
		if _, ok := present[def.Key]; !ok {
			args = append(args, def)
		}
	}
	logger.Warn(msg, args...)
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
