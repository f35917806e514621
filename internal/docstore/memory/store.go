// Package memory provides the in-memory document store used by tests and
// local development. It implements the full Store surface including live
// subscriptions, and reproduces the managed store's two-snapshot behavior for
// server-assigned timestamps: subscribers first observe the new document with
// the timestamp pending, then again once it is assigned.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"campusboard/internal/docstore"
	"campusboard/pkg/platform/sentinel"
)

// Store is an in-memory docstore.Store. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	docs   map[string][]docstore.Document // collection -> documents in insert order
	subs   map[int]*subscriber
	nextID int
	closed bool
	now    func() time.Time
}

type subscriber struct {
	query docstore.Query
	fn    docstore.SnapshotFunc
	ch    chan docstore.Snapshot
	// stop discards anything queued and halts delivery immediately (cancel).
	// flush delivers what is queued, then halts (store shutdown).
	stop      chan struct{}
	flush     chan struct{}
	stopOnce  sync.Once
	flushOnce sync.Once
}

// Option configures a Store.
type Option func(*Store)

// WithClock injects the clock used for server-assigned timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		docs: make(map[string][]docstore.Document),
		subs: make(map[int]*subscriber),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ docstore.Store = (*Store)(nil)

func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, sentinel.ErrClosed
	}
	return s.evaluate(q), nil
}

func (s *Store) Create(ctx context.Context, collection string, fields map[string]any) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Document{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return docstore.Document{}, sentinel.ErrClosed
	}

	doc := docstore.Document{
		ID:         uuid.NewString(),
		Collection: collection,
		Fields:     make(map[string]any, len(fields)),
	}
	var pendingFields []string
	for k, v := range fields {
		if v == docstore.ServerTimestamp {
			pendingFields = append(pendingFields, k)
			continue
		}
		doc.Fields[k] = v
	}

	// First phase: the document lands with server-assigned fields still
	// pending. Subscribers see the pending sentinel.
	s.docs[collection] = append(s.docs[collection], doc)
	s.broadcast(collection)

	// Second phase: the store commits the timestamp and redelivers.
	committed := s.now()
	stored := &s.docs[collection][len(s.docs[collection])-1]
	stored.CreateTime = committed
	for _, k := range pendingFields {
		stored.Fields[k] = committed
	}
	s.broadcast(collection)

	return cloneDoc(*stored), nil
}

func (s *Store) Subscribe(ctx context.Context, q docstore.Query, fn docstore.SnapshotFunc) (docstore.CancelFunc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, sentinel.ErrClosed
	}

	sub := &subscriber{
		query: q,
		fn:    fn,
		ch:    make(chan docstore.Snapshot, 64),
		stop:  make(chan struct{}),
		flush: make(chan struct{}),
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = sub
	sub.deliver(docstore.Snapshot{Docs: s.evaluate(q)})
	s.mu.Unlock()

	go sub.run(ctx)

	cancel := func() {
		sub.close()
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
	return cancel, nil
}

// Close shuts the store down. Active subscriptions receive a final error
// snapshot; subsequent operations fail with sentinel.ErrClosed.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, sub := range s.subs {
		sub.deliver(docstore.Snapshot{Err: sentinel.ErrClosed})
		sub.finish()
	}
	s.subs = make(map[int]*subscriber)
}

// broadcast recomputes and enqueues snapshots for every subscriber of the
// collection. Caller holds s.mu.
func (s *Store) broadcast(collection string) {
	for _, sub := range s.subs {
		if sub.query.Collection != collection {
			continue
		}
		sub.deliver(docstore.Snapshot{Docs: s.evaluate(sub.query)})
	}
}

// evaluate runs a query against current state. Caller holds s.mu.
func (s *Store) evaluate(q docstore.Query) []docstore.Document {
	var out []docstore.Document
	for _, doc := range s.docs[q.Collection] {
		if matches(doc, q.Filters) {
			out = append(out, cloneDoc(doc))
		}
	}
	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			if q.Desc {
				return fieldLess(out[j], out[i], q.OrderBy)
			}
			return fieldLess(out[i], out[j], q.OrderBy)
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func matches(doc docstore.Document, filters []docstore.Filter) bool {
	for _, f := range filters {
		if doc.Fields[f.Field] != f.Value {
			return false
		}
	}
	return true
}

// fieldLess orders documents by one field. Pending (absent) timestamp values
// sort as the latest instant so fresh writes surface first in descending
// order; non-timestamp values fall back to string comparison.
func fieldLess(a, b docstore.Document, field string) bool {
	at, aok := a.Time(field)
	bt, bok := b.Time(field)
	switch {
	case aok && bok:
		return at.Before(bt)
	case aok:
		return true
	case bok:
		return false
	}
	return a.String(field) < b.String(field)
}

func cloneDoc(doc docstore.Document) docstore.Document {
	fields := make(map[string]any, len(doc.Fields))
	for k, v := range doc.Fields {
		fields[k] = v
	}
	doc.Fields = fields
	return doc
}

func (sub *subscriber) deliver(snap docstore.Snapshot) {
	select {
	case sub.ch <- snap:
	default:
		// Subscriber is far behind; drop the oldest queued snapshot. Each
		// snapshot is a full replacement so only the latest matters.
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- snap:
		default:
		}
	}
}

func (sub *subscriber) run(ctx context.Context) {
	for {
		select {
		case <-sub.stop:
			return
		case <-ctx.Done():
			return
		case <-sub.flush:
			for {
				select {
				case snap := <-sub.ch:
					sub.fn(snap)
				default:
					return
				}
			}
		case snap := <-sub.ch:
			select {
			case <-sub.stop:
				return
			default:
			}
			sub.fn(snap)
		}
	}
}

func (sub *subscriber) close() {
	sub.stopOnce.Do(func() { close(sub.stop) })
}

func (sub *subscriber) finish() {
	sub.flushOnce.Do(func() { close(sub.flush) })
}
