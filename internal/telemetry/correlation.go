package telemetry

import "context"

type correlationIDKey struct{}

// CorrelationHeader is the inbound/outbound HTTP header carrying the
// correlation id across service boundaries.
const CorrelationHeader = "X-Correlation-Id"

// WithCorrelationID returns a context carrying the given correlation id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFromContext returns the correlation id stored in ctx, if any.
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(correlationIDKey{}).(string)
	return id, ok && id != ""
}
