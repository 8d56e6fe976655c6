package logger

import (
	"context"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

// CorrelationIDField is the log field carrying the request correlation id
const CorrelationIDField = "correlation_id"

// New initializes a JSON logger at the given level, falling back to info
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// Discard returns a logger that writes nowhere, for tests
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// WithCorrelationID stores an entry tagged with the correlation id in ctx
func WithCorrelationID(ctx context.Context, base logrus.FieldLogger, correlationID string) context.Context {
	entry := base.WithField(CorrelationIDField, correlationID)
	return context.WithValue(ctx, ctxKey{}, entry)
}

// FromContext returns the request-scoped entry, or one built from fallback
func FromContext(ctx context.Context, fallback logrus.FieldLogger) logrus.FieldLogger {
	if entry, ok := ctx.Value(ctxKey{}).(logrus.FieldLogger); ok {
		return entry
	}
	return fallback
}

// WithField adds a field to the request-scoped entry in ctx, if there is one
func WithField(ctx context.Context, key string, value any) context.Context {
	entry, ok := ctx.Value(ctxKey{}).(logrus.FieldLogger)
	if !ok {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, entry.WithField(key, value))
}

// CorrelationID extracts the correlation id stored by WithCorrelationID
func CorrelationID(ctx context.Context) string {
	if entry, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok {
		if id, ok := entry.Data[CorrelationIDField].(string); ok {
			return id
		}
	}
	return ""
}
