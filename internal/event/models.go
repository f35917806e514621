// Package event implements the dashboard's event domain: the live
// today-filtered sync feed, the submission flow with its duplicate-submit
// guard, and the normalization of the heterogeneous date shapes found in
// historically written documents.
package event

import (
	"time"

	"campusboard/internal/docstore"
)

// Status is the derived state of an event relative to the current instant.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusOngoing  Status = "ongoing"
	StatusDone     Status = "done"
)

// OngoingWindow is how long an event counts as ongoing after its start.
// Fixed for all event types; the stored end instant is display-only.
const OngoingWindow = time.Hour

// Field names of documents in the events collection.
const (
	fieldOwner     = "userId"
	fieldTitle     = "title"
	fieldDate      = "date"
	fieldTime      = "time"
	fieldStart     = "startdate"
	fieldEnd       = "enddate"
	fieldCreatedAt = "createdAt"
)

// Event is the in-memory projection of an events document. Date and Time are
// the display-authoritative fields; Start and End are derived and rebuilt
// from Date+Time when the stored instants are missing.
type Event struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Date    string    `json:"date"`
	Time    string    `json:"time"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	OwnerID string    `json:"-"`
}

// StatusAt derives the event status at the given instant. Exactly at Start
// the event is ongoing; exactly at Start+OngoingWindow it is done.
func (e Event) StatusAt(now time.Time) Status {
	switch {
	case now.Before(e.Start):
		return StatusUpcoming
	case now.Before(e.Start.Add(OngoingWindow)):
		return StatusOngoing
	default:
		return StatusDone
	}
}

// FromDocument projects a stored document into an Event, normalizing
// whatever date representation the writing schema version used. now anchors
// the last-resort fallback so the conversion is total.
func FromDocument(doc docstore.Document, now time.Time) Event {
	e := Event{
		ID:      doc.ID,
		Title:   doc.String(fieldTitle),
		Date:    doc.String(fieldDate),
		Time:    doc.String(fieldTime),
		OwnerID: doc.String(fieldOwner),
	}
	e.Start = normalizeInstant(doc, fieldStart, now)
	e.End = normalizeEnd(doc, e.Start)
	if e.End.Before(e.Start) {
		e.End = e.Start
	}
	return e
}

// normalizeInstant resolves a stored instant field by the legacy-schema
// priority order: native timestamp, ISO-8601 string, date+time pair, date
// alone, and finally the current instant. It never fails.
func normalizeInstant(doc docstore.Document, field string, now time.Time) time.Time {
	if t, ok := doc.Time(field); ok {
		return t
	}
	// Zoneless ISO strings from older schema versions parse as local time.
	if s := doc.String(field); s != "" {
		if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.Local); err == nil {
			return t
		}
	}
	date, clock := doc.String(fieldDate), doc.String(fieldTime)
	if date != "" && clock != "" {
		if t, err := time.ParseInLocation("2006-01-02T15:04:05", date+"T"+clock+":00", time.Local); err == nil {
			return t
		}
	}
	if date != "" {
		if t, err := time.ParseInLocation("2006-01-02", date, time.Local); err == nil {
			return t
		}
	}
	return now
}

// normalizeEnd resolves the end instant: native timestamp or ISO string,
// else the start instant.
func normalizeEnd(doc docstore.Document, start time.Time) time.Time {
	if t, ok := doc.Time(fieldEnd); ok {
		return t
	}
	if s := doc.String(fieldEnd); s != "" {
		if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.Local); err == nil {
			return t
		}
	}
	return start
}

// todayLocal formats an instant as the local calendar day used by the
// today-filter and by submissions.
func todayLocal(now time.Time) string {
	return now.Format("2006-01-02")
}
