package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/okian/highlights/pkg/logger"
)

// loggerAdapter routes watermill logs through logger.Logger.
type loggerAdapter struct {
	l logger.Logger
}

// NewLoggerAdapter adapts l to watermill.LoggerAdapter.
func NewLoggerAdapter(l logger.Logger) watermill.LoggerAdapter {
	return loggerAdapter{l: l}
}

func fields(f watermill.LogFields) []logger.Field {
	out := make([]logger.Field, 0, len(f))
	for k, v := range f {
		out = append(out, logger.Any(k, v))
	}
	return out
}

func (a loggerAdapter) Error(msg string, err error, f watermill.LogFields) {
	a.l.Error(context.Background(), msg, append(fields(f), logger.Error(err))...)
}

func (a loggerAdapter) Info(msg string, f watermill.LogFields) {
	a.l.Info(context.Background(), msg, fields(f)...)
}

func (a loggerAdapter) Debug(msg string, f watermill.LogFields) {
	a.l.Debug(context.Background(), msg, fields(f)...)
}

// Trace is folded into debug; slog has no lower level.
func (a loggerAdapter) Trace(msg string, f watermill.LogFields) {
	a.l.Debug(context.Background(), msg, fields(f)...)
}

func (a loggerAdapter) With(f watermill.LogFields) watermill.LoggerAdapter {
	return loggerAdapter{l: a.l.With(fields(f)...)}
}
