package event

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"campusboard/internal/docstore"
	"campusboard/internal/docstore/memory"
	"campusboard/internal/session"
	dErrors "campusboard/pkg/domain-errors"
	"campusboard/pkg/platform/dedupe"
	"campusboard/pkg/platform/sentinel"
	"campusboard/pkg/requestcontext"
)

// countingStore wraps a Store and counts Create calls; Create can be forced
// to fail.
type countingStore struct {
	docstore.Store

	creates int
	fail    error
}

func (c *countingStore) Create(ctx context.Context, collection string, fields map[string]any) (docstore.Document, error) {
	c.creates++
	if c.fail != nil {
		return docstore.Document{}, c.fail
	}
	return c.Store.Create(ctx, collection, fields)
}

type SubmitterSuite struct {
	suite.Suite

	now       time.Time
	store     *countingStore
	guard     dedupe.Deduper
	submitter *Submitter
}

func TestSubmitterSuite(t *testing.T) {
	suite.Run(t, new(SubmitterSuite))
}

func (s *SubmitterSuite) SetupTest() {
	s.now = time.Date(2025, 1, 9, 12, 0, 0, 0, time.Local)
	s.store = &countingStore{Store: memory.New(memory.WithClock(func() time.Time { return s.now }))}
	s.guard = dedupe.NewInMemory(0)
	s.submitter = NewSubmitter(s.store, s.guard, nil, slog.New(slog.DiscardHandler), nil)
}

func (s *SubmitterSuite) ctx() context.Context {
	ctx := requestcontext.WithTime(s.T().Context(), s.now)
	return session.WithContext(ctx, session.Identity{ID: "alice", Email: "alice@campus.edu"})
}

func (s *SubmitterSuite) validInput() Input {
	return Input{Title: "Career fair", Date: "2025-01-10", Time: "14:00"}
}

func (s *SubmitterSuite) TestSubmitCreatesDocument() {
	ev, err := s.submitter.Submit(s.ctx(), s.validInput())
	s.Require().NoError(err)
	s.Equal("Career fair", ev.Title)
	s.Equal("alice", ev.OwnerID)
	s.Equal(time.Date(2025, 1, 10, 14, 0, 0, 0, time.Local), ev.Start)
	s.Equal(1, s.store.creates)
}

func (s *SubmitterSuite) TestRejectsUnauthenticated() {
	_, err := s.submitter.Submit(requestcontext.WithTime(s.T().Context(), s.now), s.validInput())
	s.Require().ErrorIs(err, sentinel.ErrNoIdentity)
	s.Zero(s.store.creates)
}

func (s *SubmitterSuite) TestValidationFailuresSkipStore() {
	tests := []struct {
		name  string
		in    Input
		field string
	}{
		{"blank title", Input{Title: "   ", Date: "2025-01-10", Time: "14:00"}, "title"},
		{"missing date", Input{Title: "x", Time: "14:00"}, "date"},
		{"malformed time", Input{Title: "x", Date: "2025-01-10", Time: "2pm"}, "time"},
		{"instant in the past", Input{Title: "x", Date: "2025-01-09", Time: "11:00"}, "date"},
		{"instant exactly now", Input{Title: "x", Date: "2025-01-09", Time: "12:00"}, "date"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.submitter.Submit(s.ctx(), tt.in)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
			fields := dErrors.FieldsOf(err)
			s.Require().NotEmpty(fields)
			s.Equal(tt.field, fields[0].Field)
		})
	}
	s.Zero(s.store.creates)
}

func (s *SubmitterSuite) TestDuplicateWhileOutstandingIsConflict() {
	p, err := s.submitter.Prepare(s.ctx(), s.validInput())
	s.Require().NoError(err)

	_, err = s.submitter.Prepare(s.ctx(), s.validInput())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.submitter.Confirm(s.ctx(), p)
	s.Require().NoError(err)
	s.Equal(1, s.store.creates)
}

func (s *SubmitterSuite) TestSuccessReleasesGuard() {
	_, err := s.submitter.Submit(s.ctx(), s.validInput())
	s.Require().NoError(err)

	_, err = s.submitter.Submit(s.ctx(), s.validInput())
	s.Require().NoError(err)
	s.Equal(2, s.store.creates)
}

func (s *SubmitterSuite) TestCancelAllowsResubmission() {
	p, err := s.submitter.Prepare(s.ctx(), s.validInput())
	s.Require().NoError(err)
	s.submitter.Cancel(s.ctx(), p)

	_, err = s.submitter.Submit(s.ctx(), s.validInput())
	s.Require().NoError(err)
	s.Equal(1, s.store.creates)
}

func (s *SubmitterSuite) TestStoreFailureReleasesGuard() {
	s.store.fail = sentinel.ErrUnavailable

	_, err := s.submitter.Submit(s.ctx(), s.validInput())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	s.store.fail = nil
	_, err = s.submitter.Submit(s.ctx(), s.validInput())
	s.Require().NoError(err)
	s.Equal(2, s.store.creates)
}

func (s *SubmitterSuite) TestTitleIsTrimmed() {
	in := s.validInput()
	in.Title = "  Career fair  "
	ev, err := s.submitter.Submit(s.ctx(), in)
	s.Require().NoError(err)
	s.Equal("Career fair", ev.Title)
}
