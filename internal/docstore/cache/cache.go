// Package cache wraps a document store with a best-effort Redis snapshot
// cache. Successful reads are mirrored into Redis; when the backing store is
// unreachable the last known snapshot is served instead. Cache failures are
// never surfaced to callers.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"campusboard/internal/docstore"
)

// TTL bounds how stale an offline snapshot may be before it is dropped.
const TTL = 24 * time.Hour

// Store decorates an inner docstore.Store with snapshot caching.
type Store struct {
	inner docstore.Store
	rdb   *redis.Client
	log   *slog.Logger
}

func New(inner docstore.Store, rdb *redis.Client, log *slog.Logger) *Store {
	return &Store{inner: inner, rdb: rdb, log: log}
}

var _ docstore.Store = (*Store)(nil)

// cachedDoc is the Redis wire form of a document. Field values round-trip
// through JSON, so native timestamps come back as RFC 3339 strings, which the
// normalization ladder already accepts.
type cachedDoc struct {
	ID         string         `json:"id"`
	Fields     map[string]any `json:"fields"`
	CreateTime time.Time      `json:"create_time"`
}

func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	docs, err := s.inner.Query(ctx, q)
	if err == nil {
		s.put(ctx, q, docs)
		return docs, nil
	}

	cached, ok := s.get(ctx, q)
	if !ok {
		return nil, err
	}
	s.log.Warn("serving cached snapshot, store unavailable", "collection", q.Collection, "error", err)
	return cached, nil
}

// Create never touches the cache; the live subscription or the next read
// refreshes it.
func (s *Store) Create(ctx context.Context, collection string, fields map[string]any) (docstore.Document, error) {
	return s.inner.Create(ctx, collection, fields)
}

// Subscribe passes through, teeing every good snapshot into the cache so the
// offline copy tracks the live feed.
func (s *Store) Subscribe(ctx context.Context, q docstore.Query, fn docstore.SnapshotFunc) (docstore.CancelFunc, error) {
	return s.inner.Subscribe(ctx, q, func(snap docstore.Snapshot) {
		if snap.Err == nil {
			s.put(ctx, q, snap.Docs)
		}
		fn(snap)
	})
}

func (s *Store) put(ctx context.Context, q docstore.Query, docs []docstore.Document) {
	out := make([]cachedDoc, 0, len(docs))
	for _, d := range docs {
		out = append(out, cachedDoc{ID: d.ID, Fields: d.Fields, CreateTime: d.CreateTime})
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, cacheKey(q), raw, TTL).Err(); err != nil {
		s.log.Debug("snapshot cache write failed", "error", err)
	}
}

func (s *Store) get(ctx context.Context, q docstore.Query) ([]docstore.Document, bool) {
	raw, err := s.rdb.Get(ctx, cacheKey(q)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.Debug("snapshot cache read failed", "error", err)
		}
		return nil, false
	}
	var cached []cachedDoc
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false
	}
	docs := make([]docstore.Document, 0, len(cached))
	for _, c := range cached {
		docs = append(docs, docstore.Document{
			ID:         c.ID,
			Collection: q.Collection,
			Fields:     c.Fields,
			CreateTime: c.CreateTime,
		})
	}
	return docs, true
}

// cacheKey derives a stable key from the full query shape.
func cacheKey(q docstore.Query) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%v|%d", q.Collection, q.OrderBy, q.Desc, q.Limit)
	for _, f := range q.Filters {
		fmt.Fprintf(h, "|%s=%v", f.Field, f.Value)
	}
	return "docstore:snapshot:" + hex.EncodeToString(h.Sum(nil)[:16])
}
