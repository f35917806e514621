// Package docstore defines the document store abstraction the dashboard is
// built on: named collections of schema-flexible documents, equality-filtered
// and ordered queries with result limits, and push-based change subscriptions
// that deliver the full matching result set on every change.
//
// The store is the single source of truth; consumers hold only transient
// projections rebuilt from each snapshot. Implementations live in the memory,
// postgres and cache subpackages.
package docstore

import (
	"context"
	"time"
)

// Collection names used by the dashboard.
const (
	CollectionEvents  = "events"
	CollectionNotices = "notices"
)

// ServerTimestamp marks a field whose value is assigned by the store at
// commit time. Until assigned, readers observe the field as absent (the
// pending sentinel).
type serverTimestamp struct{}

// ServerTimestamp is passed as a field value in Create to request a
// store-assigned instant.
var ServerTimestamp = serverTimestamp{}

// Document is a single schema-flexible record. Field values are whatever the
// writing schema version produced: time.Time, ISO-8601 strings, plain
// strings, or absent, so readers must normalize before use.
type Document struct {
	ID         string
	Collection string
	Fields     map[string]any
	// CreateTime is the store-assigned creation instant. Zero while the
	// server timestamp is still pending.
	CreateTime time.Time
}

// Pending reports whether the server-assigned creation timestamp has not yet
// been committed for this document.
func (d Document) Pending() bool { return d.CreateTime.IsZero() }

// Time returns the named field coerced to an instant, with ok=false when the
// field is absent or not timestamp-shaped. Recognized shapes: a native
// time.Time value and an ISO-8601 / RFC 3339 string.
func (d Document) Time(field string) (time.Time, bool) {
	v, ok := d.Fields[field]
	if !ok || v == nil {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// String returns the named field as a string, or "" when absent or not a
// string.
func (d Document) String(field string) string {
	if s, ok := d.Fields[field].(string); ok {
		return s
	}
	return ""
}

// Filter is a single equality predicate on a document field.
type Filter struct {
	Field string
	Value any
}

// Query describes a filtered, ordered, bounded read of one collection.
type Query struct {
	Collection string
	Filters    []Filter
	// OrderBy names the field to sort on; Desc selects descending order.
	// Documents with the order field pending sort first in descending order
	// (they are the newest writes).
	OrderBy string
	Desc    bool
	// Limit bounds the result set; zero means no bound.
	Limit int
}

// Where appends an equality filter and returns the query for chaining.
func (q Query) Where(field string, value any) Query {
	q.Filters = append(q.Filters, Filter{Field: field, Value: value})
	return q
}

// Snapshot is the full result set of a subscribed query at one point in the
// store's commit order. Err is set when the subscription failed; Docs is then
// empty.
type Snapshot struct {
	Docs []Document
	Err  error
}

// CancelFunc releases a subscription. After it returns no further snapshots
// are delivered. It is safe to call more than once.
type CancelFunc func()

// SnapshotFunc receives subscription snapshots. Calls for one subscription
// are serialized in the store's commit order; no ordering holds across
// independent subscriptions.
type SnapshotFunc func(Snapshot)

// Store is the document store client surface.
type Store interface {
	// Query runs a one-shot read.
	Query(ctx context.Context, q Query) ([]Document, error)

	// Create persists a new document and returns it as committed. Fields set
	// to ServerTimestamp are replaced with the store-assigned instant.
	Create(ctx context.Context, collection string, fields map[string]any) (Document, error)

	// Subscribe opens a live subscription for q. fn is invoked with the
	// current result set immediately and again after every change until the
	// returned CancelFunc is called or ctx is done.
	Subscribe(ctx context.Context, q Query, fn SnapshotFunc) (CancelFunc, error)
}
