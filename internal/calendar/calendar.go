// Package calendar builds the upcoming-events view: a bounded fetch of the
// whole event collection grouped into calendar days.
package calendar

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"campusboard/internal/docstore"
	"campusboard/internal/event"
	dErrors "campusboard/pkg/domain-errors"
	"campusboard/pkg/requestcontext"
)

// fetchLimit bounds the one-shot event query backing the view.
const fetchLimit = 100

// Day is one calendar day along with its events, ordered by start time.
type Day struct {
	Date   time.Time     `json:"date"`
	Events []event.Event `json:"events"`
}

// Service assembles the calendar view.
type Service struct {
	store docstore.Store
	log   *slog.Logger
}

func NewService(store docstore.Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

// Upcoming fetches recent events and groups those starting today or later by
// calendar day. Days are ascending; events within a day are ascending by
// start.
func (s *Service) Upcoming(ctx context.Context) ([]Day, error) {
	docs, err := s.store.Query(ctx, docstore.Query{
		Collection: docstore.CollectionEvents,
		OrderBy:    "createdAt",
		Desc:       true,
		Limit:      fetchLimit,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load events")
	}

	now := requestcontext.Now(ctx)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	byDay := make(map[time.Time][]event.Event)
	for _, doc := range docs {
		ev := event.FromDocument(doc, now)
		if ev.Start.Before(midnight) {
			continue
		}
		y, m, d := ev.Start.In(now.Location()).Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
		byDay[day] = append(byDay[day], ev)
	}

	days := make([]Day, 0, len(byDay))
	for date, events := range byDay {
		sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
		days = append(days, Day{Date: date, Events: events})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days, nil
}
