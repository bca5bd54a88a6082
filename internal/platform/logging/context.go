package logging

import (
	"context"

	"go.uber.org/zap"
)

type ctxScopeKey struct{}

// requestScope is what RequestLogger attaches to a request context.
type requestScope struct {
	logger  *zap.Logger
	traceID string
}

func scopeFromContext(ctx context.Context) requestScope {
	if ctx == nil {
		return requestScope{}
	}
	s, _ := ctx.Value(ctxScopeKey{}).(requestScope)
	return s
}

// LoggerFromContext returns the request-scoped logger, or the global logger
// outside a request.
func LoggerFromContext(ctx context.Context) *zap.Logger {
	if l := scopeFromContext(ctx).logger; l != nil {
		return l
	}
	return Logger()
}

// TraceIDFromContext returns the Cloud Trace resource or, failing that, the
// request ID. Empty outside a request.
func TraceIDFromContext(ctx context.Context) string {
	return scopeFromContext(ctx).traceID
}

// WithLogger returns a copy of ctx whose request-scoped logger is logger.
// The trace ID already in ctx is kept.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	s := scopeFromContext(ctx)
	s.logger = logger
	return context.WithValue(ctx, ctxScopeKey{}, s)
}

func withScope(ctx context.Context, logger *zap.Logger, traceID string) context.Context {
	return context.WithValue(ctx, ctxScopeKey{}, requestScope{logger: logger, traceID: traceID})
}

func LogInfo(ctx context.Context, msg string, fields ...zap.Field) {
	LoggerFromContext(ctx).Info(msg, fields...)
}

func LogWarn(ctx context.Context, msg string, fields ...zap.Field) {
	LoggerFromContext(ctx).Warn(msg, fields...)
}

// LogError logs at error level and appends err as the "error" field when non-nil.
func LogError(ctx context.Context, msg string, err error, fields ...zap.Field) {
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	LoggerFromContext(ctx).Error(msg, fields...)
}

// LogFatal logs like LogError and then exits the process.
func LogFatal(ctx context.Context, msg string, err error, fields ...zap.Field) {
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	LoggerFromContext(ctx).Fatal(msg, fields...)
}
