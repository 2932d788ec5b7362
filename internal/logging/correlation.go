package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CorrelationField is the log field carrying the correlation ID.
const CorrelationField = "correlation_id"

// CorrelationHeader is the HTTP header used to propagate the correlation ID.
const CorrelationHeader = "X-Correlation-ID"

type correlationKey struct{}

// NewCorrelationID returns a fresh random correlation ID.
func NewCorrelationID() string {
	return uuid.NewString()
}

// WithCorrelationID stores id in ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the ID stored in ctx, or "" when there is none.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// EnsureCorrelationID returns ctx unchanged if it already carries an ID,
// otherwise a child context with a new one.
func EnsureCorrelationID(ctx context.Context) (context.Context, string) {
	if id := CorrelationID(ctx); id != "" {
		return ctx, id
	}
	id := NewCorrelationID()
	return WithCorrelationID(ctx, id), id
}

// FromContext returns log tagged with the correlation ID found in ctx.
func FromContext(ctx context.Context, log logrus.FieldLogger) logrus.FieldLogger {
	if id := CorrelationID(ctx); id != "" {
		return log.WithField(CorrelationField, id)
	}
	return log
}
