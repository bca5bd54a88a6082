package logging

import (
	"context"

	"go.uber.org/zap"
)

// LogAction records the outcome of a user-triggered engagement action.
//
// Only the action name, the result kind and optional non-identifying details
// are written. Callers must never pass form values (name, email, phone,
// date of birth) in details.
func LogAction(ctx context.Context, action, result string, details map[string]any) {
	fields := []zap.Field{
		zap.String("action.name", action),
		zap.String("action.result", result),
	}
	if len(details) > 0 {
		fields = append(fields, zap.Any("action.details", details))
	}
	LoggerFromContext(ctx).Info("Engagement action", fields...)
}
