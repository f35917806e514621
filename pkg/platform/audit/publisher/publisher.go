package publisher

import (
	"context"
	"log/slog"

	"campusboard/pkg/platform/audit"
	"campusboard/pkg/requestcontext"
)

// Channel feeds emitted events into an inbox consumed by a worker. Emission
// never blocks: when the inbox is full the event is dropped and logged.
type Channel struct {
	inbox chan audit.Event
	log   *slog.Logger
}

const defaultInboxSize = 256

func NewChannel(log *slog.Logger) *Channel {
	return &Channel{inbox: make(chan audit.Event, defaultInboxSize), log: log}
}

// Inbox exposes the receive side for a worker.
func (c *Channel) Inbox() <-chan audit.Event { return c.inbox }

func (c *Channel) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	select {
	case c.inbox <- event:
		return nil
	default:
		c.log.WarnContext(ctx, "audit inbox full, dropping event",
			"action", event.Action, "user_id", event.UserID)
		return nil
	}
}

// Tee fans one emission out to several publishers. The first error wins but
// every publisher still sees the event.
func Tee(publishers ...audit.Publisher) audit.Publisher {
	return teePublisher(publishers)
}

type teePublisher []audit.Publisher

func (t teePublisher) Emit(ctx context.Context, event audit.Event) error {
	var first error
	for _, p := range t {
		if err := p.Emit(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
