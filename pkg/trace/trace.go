package trace

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

// HeaderName is the HTTP header used to propagate trace IDs between services.
const HeaderName = "X-Trace-ID"

// GenerateTraceID returns a new random trace ID.
func GenerateTraceID() string {
	return uuid.NewString()
}

// FromContext returns the trace_id stored in the context, or "".
func FromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(contextKey{}).(string); ok {
		return traceID
	}
	return ""
}

// WithContext stores a trace_id in the context.
func WithContext(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, contextKey{}, traceID)
}
