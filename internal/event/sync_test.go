package event

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"campusboard/internal/docstore"
	"campusboard/internal/docstore/memory"
	"campusboard/internal/session"
	"campusboard/pkg/platform/sentinel"
	"campusboard/pkg/requestcontext"
)

type WatcherSuite struct {
	suite.Suite

	now     time.Time
	store   *memory.Store
	watcher *Watcher
}

func TestWatcherSuite(t *testing.T) {
	suite.Run(t, new(WatcherSuite))
}

func (s *WatcherSuite) SetupTest() {
	s.now = time.Date(2025, 1, 9, 12, 0, 0, 0, time.Local)
	s.store = memory.New(memory.WithClock(func() time.Time { return s.now }))
	s.watcher = NewWatcher(s.store, slog.New(slog.DiscardHandler), nil)
}

func (s *WatcherSuite) ctx(userID string) context.Context {
	ctx := requestcontext.WithTime(s.T().Context(), s.now)
	if userID != "" {
		ctx = session.WithContext(ctx, session.Identity{ID: userID})
	}
	return ctx
}

func (s *WatcherSuite) seed(userID, title, date string) {
	_, err := s.store.Create(s.T().Context(), docstore.CollectionEvents, map[string]any{
		"userId":    userID,
		"title":     title,
		"date":      date,
		"time":      "15:00",
		"createdAt": docstore.ServerTimestamp,
	})
	s.Require().NoError(err)
}

func (s *WatcherSuite) TestWatchRequiresIdentity() {
	cancel, err := s.watcher.WatchToday(s.ctx(""), func(List) {})
	s.Require().ErrorIs(err, sentinel.ErrNoIdentity)
	s.Nil(cancel)
}

func (s *WatcherSuite) TestWatchDeliversOnlyOwnTodayEvents() {
	today := s.now.Format("2006-01-02")
	s.seed("alice", "standup", today)
	s.seed("alice", "last week", "2025-01-02")
	s.seed("bob", "bob's thing", today)

	lists := make(chan List, 8)
	cancel, err := s.watcher.WatchToday(s.ctx("alice"), func(l List) { lists <- l })
	s.Require().NoError(err)
	defer cancel()

	got := s.nextList(lists)
	s.Require().NoError(got.Err)
	s.Require().Len(got.Events, 1)
	s.Equal("standup", got.Events[0].Title)
	s.Equal(StatusUpcoming, got.Events[0].StatusAt(s.now))
}

func (s *WatcherSuite) TestWatchPicksUpNewEvents() {
	today := s.now.Format("2006-01-02")

	lists := make(chan List, 8)
	cancel, err := s.watcher.WatchToday(s.ctx("alice"), func(l List) { lists <- l })
	s.Require().NoError(err)
	defer cancel()

	initial := s.nextList(lists)
	s.Empty(initial.Events)

	s.seed("alice", "office hours", today)

	// Two snapshots follow a create: pending, then committed.
	s.Eventually(func() bool {
		select {
		case l := <-lists:
			return len(l.Events) == 1 && l.Events[0].Title == "office hours"
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func (s *WatcherSuite) TestCancelStopsDelivery() {
	lists := make(chan List, 8)
	cancel, err := s.watcher.WatchToday(s.ctx("alice"), func(l List) { lists <- l })
	s.Require().NoError(err)

	s.nextList(lists)
	cancel()

	s.seed("alice", "after cancel", s.now.Format("2006-01-02"))
	time.Sleep(20 * time.Millisecond)
	select {
	case l := <-lists:
		s.Failf("unexpected delivery after cancel", "%+v", l)
	default:
	}
}

func (s *WatcherSuite) TestTodayOneShot() {
	today := s.now.Format("2006-01-02")
	s.seed("alice", "standup", today)

	events, err := s.watcher.Today(s.ctx("alice"))
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("standup", events[0].Title)

	_, err = s.watcher.Today(s.ctx(""))
	s.Require().ErrorIs(err, sentinel.ErrNoIdentity)
}

func (s *WatcherSuite) nextList(lists <-chan List) List {
	s.T().Helper()
	select {
	case l := <-lists:
		return l
	case <-time.After(time.Second):
		require.FailNow(s.T(), "timed out waiting for a list")
		return List{}
	}
}
