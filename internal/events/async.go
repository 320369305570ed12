package events

import (
	"context"
	"log/slog"
)

// Async decouples publishing from the request path with a bounded inbox and a
// background worker. Notifications are advisory, so a full inbox drops the
// event with a warning rather than blocking a policy mutation.
type Async struct {
	next   Publisher
	inbox  chan Event
	logger *slog.Logger
}

func NewAsync(next Publisher, size int, logger *slog.Logger) *Async {
	if size <= 0 {
		size = 256
	}
	return &Async{
		next:   next,
		inbox:  make(chan Event, size),
		logger: logger,
	}
}

func (a *Async) Publish(ctx context.Context, event Event) error {
	select {
	case a.inbox <- event:
	default:
		a.logger.WarnContext(ctx, "event inbox full, dropping notification",
			"event_type", event.Type,
			"policy_id", event.PolicyID,
		)
	}
	return nil
}

// Run drains the inbox until ctx is canceled. Delivery failures are logged
// and the worker keeps going.
func (a *Async) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-a.inbox:
			if err := a.next.Publish(ctx, event); err != nil {
				a.logger.ErrorContext(ctx, "event delivery failed",
					"event_type", event.Type,
					"policy_id", event.PolicyID,
					"error", err,
				)
			}
		}
	}
}
