package logging

import (
	"context"
	"log/slog"

	"dawpresence/internal/services"
)

const (
	// FieldComponent is the structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested next step for a failure.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldTick is the reconciliation tick sequence number.
	FieldTick = "tick"
	// FieldClientID is the Discord application id the channel is bound to.
	FieldClientID = "client_id"
	FieldDAW      = "daw"
	FieldPID      = "pid"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if tick, ok := services.TickFromContext(ctx); ok {
		fields = append(fields, slog.Uint64(FieldTick, tick))
	}
	if id, ok := services.ClientIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldClientID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, len(fields))
	for i, field := range fields {
		args[i] = field
	}
	return logger.With(args...)
}
