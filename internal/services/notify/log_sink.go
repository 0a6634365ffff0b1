package notify

import (
	"context"
	"log/slog"
)

// LogSink writes announcements to the structured log
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Post(ctx context.Context, text string) error {
	s.logger.InfoContext(ctx, "announcement", slog.String("text", text))
	return nil
}
