package logger

import (
	"context"
	"log/slog"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey int

const (
	requestIDKey contextKey = iota
	incidentKey
)

// WithRequestID returns a new context with the given request ID stored.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID extracts the request ID from the context.
// Returns an empty string if no request ID is set.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithIncident stores the incident identifier being processed.
func WithIncident(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, incidentKey, id)
}

// Incident returns the incident identifier stored by WithIncident.
func Incident(ctx context.Context) string {
	id, _ := ctx.Value(incidentKey).(string)
	return id
}

// From returns the default logger enriched with the request and incident
// identifiers found in ctx.
func From(ctx context.Context) *slog.Logger {
	l := slog.Default()
	if id := RequestID(ctx); id != "" {
		l = l.With("request_id", id)
	}
	if id := Incident(ctx); id != "" {
		l = l.With("incident_id", id)
	}
	return l
}
