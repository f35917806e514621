package event

import (
	"context"
	"log/slog"

	"campusboard/internal/docstore"
	"campusboard/internal/event/metrics"
	"campusboard/internal/session"
	"campusboard/pkg/platform/sentinel"
	"campusboard/pkg/requestcontext"
)

// Default and maximum bounds on events delivered per snapshot.
const (
	defaultTodayLimit = 30
	maxTodayLimit     = 100
)

// List is one delivered view of the caller's events for today. Events carry
// the status computed at delivery time; Err is set when the underlying store
// reported a failure, in which case Events is empty.
type List struct {
	Events []Event
	Err    error
}

// ListFunc receives each rebuilt event list.
type ListFunc func(List)

// Watcher maintains live subscriptions over the caller's events for the
// current day.
type Watcher struct {
	store   docstore.Store
	log     *slog.Logger
	metrics *metrics.Metrics
	limit   int
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLimit overrides the per-snapshot event bound, clamped to 100.
func WithLimit(n int) WatcherOption {
	return func(w *Watcher) {
		if n > 0 {
			w.limit = min(n, maxTodayLimit)
		}
	}
}

// NewWatcher creates a Watcher backed by the given document store.
func NewWatcher(store docstore.Store, log *slog.Logger, m *metrics.Metrics, opts ...WatcherOption) *Watcher {
	w := &Watcher{store: store, log: log, metrics: m, limit: defaultTodayLimit}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WatchToday subscribes to the caller's events for the current local day and
// invokes fn with a freshly rebuilt list on every snapshot. The identity must
// be resolved from the context; unauthenticated callers get
// sentinel.ErrNoIdentity and no subscription is opened.
func (w *Watcher) WatchToday(ctx context.Context, fn ListFunc) (docstore.CancelFunc, error) {
	id := session.FromContext(ctx)
	if !id.Resolved() {
		return nil, sentinel.ErrNoIdentity
	}

	now := requestcontext.Now(ctx)
	q := docstore.Query{
		Collection: docstore.CollectionEvents,
		OrderBy:    fieldCreatedAt,
		Desc:       true,
		Limit:      w.limit,
	}.Where(fieldOwner, id.ID).Where(fieldDate, todayLocal(now))

	return w.store.Subscribe(ctx, q, func(snap docstore.Snapshot) {
		if snap.Err != nil {
			w.metrics.IncWatchErrors()
			w.log.WarnContext(ctx, "event subscription error", "error", snap.Err, "user_id", id.ID)
			fn(List{Err: snap.Err})
			return
		}
		at := requestcontext.Now(ctx)
		events := make([]Event, 0, len(snap.Docs))
		for _, doc := range snap.Docs {
			events = append(events, FromDocument(doc, at))
		}
		w.metrics.IncSnapshotsDelivered()
		fn(List{Events: events})
	})
}

// Today returns a one-shot view of the caller's events for the current local
// day, without opening a subscription.
func (w *Watcher) Today(ctx context.Context) ([]Event, error) {
	id := session.FromContext(ctx)
	if !id.Resolved() {
		return nil, sentinel.ErrNoIdentity
	}

	now := requestcontext.Now(ctx)
	q := docstore.Query{
		Collection: docstore.CollectionEvents,
		OrderBy:    fieldCreatedAt,
		Desc:       true,
		Limit:      w.limit,
	}.Where(fieldOwner, id.ID).Where(fieldDate, todayLocal(now))

	docs, err := w.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(docs))
	for _, doc := range docs {
		events = append(events, FromDocument(doc, now))
	}
	return events, nil
}
