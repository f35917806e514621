// Package dedupe provides idempotency tracking for submission flows.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen submission keys to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks whether key was seen and records it if
	// not. Returns true if key was already seen, false if newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord removes a key from the seen set, allowing it to be retried.
	// Use when a submission was recorded but failed to persist, or when the
	// user cancels a pending confirmation.
	Unrecord(ctx context.Context, key string)

	Size() int
}

// InMemory implements Deduper with a bounded map. When the bound is reached
// the oldest recorded key is evicted, so a stale guard never blocks new
// submissions indefinitely.
type InMemory struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string
	maxSize int
}

const defaultMaxSize = 1024

// NewInMemory creates a bounded in-memory deduper. maxSize <= 0 selects the
// default bound.
func NewInMemory(maxSize int) *InMemory {
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}
	return &InMemory{
		seen:    make(map[string]struct{}),
		maxSize: maxSize,
	}
}

func (d *InMemory) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if len(d.order) >= d.maxSize {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.seen, oldest)
	}
	d.seen[key] = struct{}{}
	d.order = append(d.order, key)
	return false
}

func (d *InMemory) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; !ok {
		return
	}
	delete(d.seen, key)
	for i, k := range d.order {
		if k == key {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

func (d *InMemory) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
