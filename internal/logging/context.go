package logging

import (
	"context"
	"log/slog"

	"aotw/internal/services"
)

// ContextFields returns the submission scope of ctx as log attributes, in a
// fixed order.
func ContextFields(ctx context.Context) []slog.Attr {
	scope := services.ScopeFrom(ctx)
	pairs := [...][2]string{
		{FieldCorrelationID, scope.RequestID},
		{FieldStage, scope.Stage},
		{FieldPicker, scope.Picker},
		{FieldAlbumID, scope.AlbumID},
	}
	var fields []slog.Attr
	for _, p := range pairs {
		if p[1] != "" {
			fields = append(fields, slog.String(p[0], p[1]))
		}
	}
	return fields
}

// WithContext returns logger with the submission scope of ctx attached.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if fields := ContextFields(ctx); len(fields) > 0 {
		return logger.With(Args(fields...)...)
	}
	return logger
}
