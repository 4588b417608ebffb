// Package ctxlog carries an optional slog.Logger through context.Context
// under a private key, so x/hclgraph steps can log lifecycle events
// without taking a logger in their constructors. (pool and executor take
// their loggers through WithLogger options instead.)
package ctxlog

import (
	"context"
	"io"
	"log/slog"
)

type key struct{}

var loggerKey = key{}

// discard is returned by FromContext when no logger has been attached. It
// keeps the core silent by default rather than panicking, since most
// callers never configure a logger at all.
var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// WithLogger returns a new context with logger embedded.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the slog.Logger attached to ctx, or a discard logger
// if none was attached.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return discard
}
