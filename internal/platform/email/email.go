// Package email defines the outbound mail contract used by the contact form.
package email

import (
	"context"
	"net/mail"
)

// Message is one outbound plain-text email.
type Message struct {
	Subject string
	Body    string
	To      []mail.Address
	ReplyTo mail.Address
}

// HasRecipients reports whether the message can be delivered anywhere.
func (m Message) HasRecipients() bool { return len(m.To) > 0 }

// Service delivers messages. Implementations must not retry; the caller
// surfaces a single success or failure.
type Service interface {
	Send(ctx context.Context, msg Message) error
}
