package services

import "context"

type contextKey string

const (
	tickKey     contextKey = "tick"
	clientIDKey contextKey = "client_id"
)

// WithTick annotates context with the reconciliation tick sequence number.
func WithTick(ctx context.Context, tick uint64) context.Context {
	return context.WithValue(ctx, tickKey, tick)
}

// TickFromContext extracts the tick sequence number if present.
func TickFromContext(ctx context.Context) (uint64, bool) {
	v, ok := ctx.Value(tickKey).(uint64)
	return v, ok
}

// WithClientID annotates context with the Discord application id in use.
func WithClientID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIDKey, id)
}

// ClientIDFromContext returns the Discord application id if present.
func ClientIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(clientIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
