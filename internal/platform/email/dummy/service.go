package dummymail

import (
	"context"
	"sync"

	"campusboard/internal/platform/email"
)

// Service records messages instead of delivering them. Tests inspect Sent.
type Service struct {
	mu   sync.Mutex
	sent []email.Message

	// Err, when set, is returned from Send to simulate provider failures.
	Err error
}

var _ email.Service = (*Service)(nil)

func NewService() *Service {
	return &Service{}
}

func (svc *Service) Send(_ context.Context, msg email.Message) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.Err != nil {
		return svc.Err
	}
	svc.sent = append(svc.sent, msg)
	return nil
}

// Sent returns a copy of the messages recorded so far.
func (svc *Service) Sent() []email.Message {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]email.Message{}, svc.sent...)
}

// Clear empties the recorded messages.
func (svc *Service) Clear() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.sent = nil
}
