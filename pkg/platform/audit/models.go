package audit

import (
	"context"
	"time"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	UserID    string
	Subject   string
	Action    string
	RequestID string
}

// Audit actions emitted by the board's domain services.
const (
	EventCreated       = "event_created"
	NoticePosted       = "notice_posted"
	ContactMessageSent = "contact_message_sent"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Publisher hands audit events off to an asynchronous pipeline. Emit must not
// block the calling request path.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}
