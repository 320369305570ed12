package events

import (
	"context"
	"log/slog"
)

// Log writes each event to the structured log. Used when no broker is
// configured so notifications remain observable in development.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Publish(ctx context.Context, event Event) error {
	l.logger.InfoContext(ctx, "policy event",
		"event_id", event.ID,
		"event_type", event.Type,
		"policy_id", event.PolicyID,
		"holder", event.Holder,
	)
	return nil
}
