package logging

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RequestLogger attaches a request-scoped logger carrying the request ID,
// the static fields (such as the engagement mode) and, when projectID is set
// and a valid traceparent arrives, the Cloud Trace correlation fields.
func RequestLogger(projectID string, static ...zap.Field) func(http.Handler) http.Handler {
	base := Logger()
	if len(static) > 0 {
		base = base.With(static...)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := chimiddleware.GetReqID(r.Context())
			traceID := reqID

			var fields []zap.Field
			if tp, ok := parseTraceparent(r.Header.Get(traceparentHeader)); ok && projectID != "" {
				fields = tp.fields(projectID)
				traceID = tp.resource(projectID)
			}
			if reqID != "" {
				fields = append(fields, zap.String("requestId", reqID))
			}
			logger := base
			if len(fields) > 0 {
				logger = base.With(fields...)
			}
			next.ServeHTTP(w, r.WithContext(withScope(r.Context(), logger, traceID)))
		})
	}
}

// AccessLogger writes structured request summaries using the request-scoped logger.
func AccessLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			}
			if pattern := RoutePattern(r); pattern != "" {
				fields = append(fields, zap.String("route", pattern))
			}
			LoggerFromContext(r.Context()).Info("request completed", fields...)
		})
	}
}

// RoutePattern returns the matched chi route pattern, or "" when the request
// was not routed through chi.
func RoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	return rctx.RoutePattern()
}
