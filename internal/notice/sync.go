package notice

import (
	"context"
	"log/slog"

	"campusboard/internal/docstore"
	"campusboard/internal/notice/metrics"
)

const (
	// DashboardLimit bounds the feed shown on the dashboard.
	DashboardLimit = 30
	// PageLimit bounds the feed shown on the dedicated notices page.
	PageLimit = 100
)

// Feed is one delivered view of the notice board, newest first.
type Feed struct {
	Notices []Notice
	Err     error
}

// FeedFunc receives each rebuilt feed.
type FeedFunc func(Feed)

// Watcher maintains live subscriptions over the global notice feed.
type Watcher struct {
	store   docstore.Store
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewWatcher(store docstore.Store, log *slog.Logger, m *metrics.Metrics) *Watcher {
	return &Watcher{store: store, log: log, metrics: m}
}

// Watch subscribes to the notice feed and invokes fn with a freshly rebuilt
// feed on every snapshot. No identity is required; the board is public.
// A non-positive limit falls back to DashboardLimit; limits above PageLimit
// are clamped.
func (w *Watcher) Watch(ctx context.Context, limit int, fn FeedFunc) (docstore.CancelFunc, error) {
	q := feedQuery(limit)
	return w.store.Subscribe(ctx, q, func(snap docstore.Snapshot) {
		if snap.Err != nil {
			w.metrics.IncWatchErrors()
			w.log.WarnContext(ctx, "notice subscription error", "error", snap.Err)
			fn(Feed{Err: snap.Err})
			return
		}
		notices := make([]Notice, 0, len(snap.Docs))
		for _, doc := range snap.Docs {
			notices = append(notices, FromDocument(doc))
		}
		w.metrics.IncSnapshotsDelivered()
		fn(Feed{Notices: notices})
	})
}

// List returns a one-shot view of the notice feed.
func (w *Watcher) List(ctx context.Context, limit int) ([]Notice, error) {
	docs, err := w.store.Query(ctx, feedQuery(limit))
	if err != nil {
		return nil, err
	}
	notices := make([]Notice, 0, len(docs))
	for _, doc := range docs {
		notices = append(notices, FromDocument(doc))
	}
	return notices, nil
}

func feedQuery(limit int) docstore.Query {
	if limit <= 0 {
		limit = DashboardLimit
	}
	if limit > PageLimit {
		limit = PageLimit
	}
	return docstore.Query{
		Collection: docstore.CollectionNotices,
		OrderBy:    fieldCreatedAt,
		Desc:       true,
		Limit:      limit,
	}
}
