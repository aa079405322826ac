package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/minewiki/itemscraper/internal/progress"
)

// LogSink emits structured logs for the progress stream. Item completions log
// at debug so the default output stays quiet on large runs; run milestones
// log at info.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs the event using structured fields.
func (s *LogSink) Consume(_ context.Context, evt progress.Event) error {
	fields := []zap.Field{
		zap.String("run_id", evt.RunID),
		zap.String("stage", string(evt.Stage)),
	}
	switch evt.Stage {
	case progress.StageItemDone:
		fields = append(fields,
			zap.String("item", evt.Item),
			zap.Int("stack", evt.Stack),
			zap.String("status_class", string(evt.StatusClass)),
			zap.Int64("items", evt.Items),
			zap.Duration("dur", evt.Dur),
		)
		if evt.Note != "" {
			fields = append(fields, zap.String("note", evt.Note))
		}
		s.logger.Debug("progress event", fields...)
	default:
		fields = append(fields,
			zap.Int64("items", evt.Items),
			zap.Duration("dur", evt.Dur),
			zap.String("result", evt.Result),
		)
		s.logger.Info("progress event", fields...)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
