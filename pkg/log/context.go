package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// WithConnection returns a context whose logger is tagged with the connection ID.
func WithConnection(ctx context.Context, connectionID string) context.Context {
	l := Ctx(ctx).With().Str(FieldConnectionID, connectionID).Logger()
	return WithLogger(ctx, l)
}

// Ctx retrieves the logger from the context.
// If no logger is found, the global logger is returned.
func Ctx(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return L()
}
