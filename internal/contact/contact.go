// Package contact implements the contact form: validate the sender's details
// and relay the message to the board staff inbox.
package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"campusboard/internal/platform/email"
	"campusboard/internal/platform/validate"
	"campusboard/internal/session"
	dErrors "campusboard/pkg/domain-errors"
	"campusboard/pkg/platform/audit"
	"campusboard/pkg/requestcontext"
)

// Input is the caller-supplied contact form payload.
type Input struct {
	Name    string `json:"name"    validate:"required,max=120"`
	Email   string `json:"email"   validate:"required,email"`
	Message string `json:"message" validate:"required,max=5000"`
}

// Service relays contact messages over an email backend.
type Service struct {
	mail      email.Service
	recipient mail.Address
	publisher audit.Publisher
	log       *slog.Logger
}

func NewService(mailSvc email.Service, recipient mail.Address, publisher audit.Publisher, log *slog.Logger) *Service {
	return &Service{mail: mailSvc, recipient: recipient, publisher: publisher, log: log}
}

// Send validates in and delivers one email. No queueing or retry: the
// caller gets exactly one success or failure.
func (s *Service) Send(ctx context.Context, in Input) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Message = strings.TrimSpace(in.Message)
	if err := validate.Struct(in); err != nil {
		return err
	}

	msg := email.Message{
		Subject: "Contact form message from " + in.Name,
		Body:    fmt.Sprintf("From: %s <%s>\n\n%s", in.Name, in.Email, in.Message),
		To:      []mail.Address{s.recipient},
		ReplyTo: mail.Address{Name: in.Name, Address: in.Email},
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.log.ErrorContext(ctx, "contact message delivery failed", "error", err)
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to send message")
	}

	s.logAudit(ctx, audit.ContactMessageSent, "sender", in.Email)
	return nil
}

func (s *Service) logAudit(ctx context.Context, action string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", action, "log_type", "audit")
	if s.log != nil {
		s.log.InfoContext(ctx, action, args...)
	}
	if s.publisher == nil {
		return
	}
	id := session.FromContext(ctx)
	_ = s.publisher.Emit(ctx, audit.Event{
		UserID:  id.ID,
		Subject: id.ID,
		Action:  action,
	})
}
