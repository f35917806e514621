package event

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"campusboard/internal/docstore"
	"campusboard/internal/event/metrics"
	"campusboard/internal/platform/validate"
	"campusboard/internal/session"
	dErrors "campusboard/pkg/domain-errors"
	"campusboard/pkg/platform/audit"
	"campusboard/pkg/platform/dedupe"
	"campusboard/pkg/platform/sentinel"
	"campusboard/pkg/requestcontext"
)

// Input is the caller-supplied payload for a new event.
type Input struct {
	Title string `json:"title" validate:"required,max=200"`
	Date  string `json:"date"  validate:"required,datetime=2006-01-02"`
	Time  string `json:"time"  validate:"required,datetime=15:04"`
}

// Prepared is a validated submission awaiting confirmation. The guard key is
// held until Confirm or Cancel resolves it.
type Prepared struct {
	Input Input
	Start time.Time

	key string
}

// Submitter runs the event submission flow: validate, guard against duplicate
// resubmission, create the document, record the audit trail.
type Submitter struct {
	store     docstore.Store
	guard     dedupe.Deduper
	publisher audit.Publisher
	log       *slog.Logger
	metrics   *metrics.Metrics
}

func NewSubmitter(store docstore.Store, guard dedupe.Deduper, publisher audit.Publisher, log *slog.Logger, m *metrics.Metrics) *Submitter {
	return &Submitter{store: store, guard: guard, publisher: publisher, log: log, metrics: m}
}

// Prepare validates in and records its guard key. A second Prepare with the
// same date, time and title while the first is outstanding returns a conflict
// so at most one document is ever created per confirmed submission.
// No store call happens here.
func (s *Submitter) Prepare(ctx context.Context, in Input) (Prepared, error) {
	id := session.FromContext(ctx)
	if !id.Resolved() {
		return Prepared{}, sentinel.ErrNoIdentity
	}

	in.Title = strings.TrimSpace(in.Title)
	if err := validate.Struct(in); err != nil {
		s.metrics.IncSubmissionsRejected()
		return Prepared{}, err
	}

	start, err := time.ParseInLocation("2006-01-02T15:04", in.Date+"T"+in.Time, time.Local)
	if err != nil {
		s.metrics.IncSubmissionsRejected()
		return Prepared{}, dErrors.NewValidation("invalid input",
			dErrors.FieldError{Field: "date", Message: "has an invalid format"})
	}
	if !start.After(requestcontext.Now(ctx)) {
		s.metrics.IncSubmissionsRejected()
		return Prepared{}, dErrors.NewValidation("invalid input",
			dErrors.FieldError{Field: "date", Message: "must be in the future"})
	}

	key := in.Date + "|" + in.Time + "|" + in.Title
	if s.guard.SeenAndRecord(ctx, key) {
		s.metrics.IncDuplicatesIgnored()
		return Prepared{}, dErrors.New(dErrors.CodeConflict, "an identical submission is already in progress")
	}

	return Prepared{Input: in, Start: start, key: key}, nil
}

// Confirm creates the event document. The guard key is released whichever way
// the create resolves: it only suppresses duplicates while this submission is
// in flight, a later intentional identical submission is allowed.
func (s *Submitter) Confirm(ctx context.Context, p Prepared) (Event, error) {
	id := session.FromContext(ctx)
	if !id.Resolved() {
		return Event{}, sentinel.ErrNoIdentity
	}

	doc, err := s.store.Create(ctx, docstore.CollectionEvents, map[string]any{
		fieldOwner:     id.ID,
		fieldTitle:     p.Input.Title,
		fieldDate:      p.Input.Date,
		fieldTime:      p.Input.Time,
		fieldStart:     p.Start,
		fieldEnd:       p.Start,
		fieldCreatedAt: docstore.ServerTimestamp,
	})
	s.guard.Unrecord(ctx, p.key)
	if err != nil {
		return Event{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to save event")
	}

	s.metrics.IncEventsCreated()
	s.logAudit(ctx, audit.EventCreated,
		"user_id", id.ID,
		"event_id", doc.ID,
		"title", p.Input.Title,
		"date", p.Input.Date,
	)
	return FromDocument(doc, requestcontext.Now(ctx)), nil
}

// Cancel abandons a prepared submission and releases its guard key.
func (s *Submitter) Cancel(ctx context.Context, p Prepared) {
	s.guard.Unrecord(ctx, p.key)
}

// Submit runs Prepare and Confirm in one step for callers that do not expose
// an explicit confirmation stage.
func (s *Submitter) Submit(ctx context.Context, in Input) (Event, error) {
	p, err := s.Prepare(ctx, in)
	if err != nil {
		return Event{}, err
	}
	return s.Confirm(ctx, p)
}

func (s *Submitter) logAudit(ctx context.Context, action string, attributes ...any) {
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
	_ = s.publisher.Emit(ctx, audit.Event{
		UserID:  session.FromContext(ctx).ID,
		Subject: session.FromContext(ctx).ID,
		Action:  action,
	})
}
