package worker

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusboard/pkg/platform/audit"
	"campusboard/pkg/platform/audit/publisher"
	"campusboard/pkg/platform/audit/store/memory"
)

func TestWorkerPersistsEmittedEvents(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	ch := publisher.NewChannel(log)
	store := memory.NewInMemoryStore()
	w := NewWorker(store, ch.Inbox(), log)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	require.NoError(t, ch.Emit(ctx, audit.Event{UserID: "alice", Action: audit.EventCreated}))
	require.NoError(t, ch.Emit(ctx, audit.Event{UserID: "admin", Action: audit.NoticePosted}))

	assert.Eventually(t, func() bool {
		events, err := store.ListRecent(context.Background(), 0)
		return err == nil && len(events) == 2
	}, time.Second, 5*time.Millisecond)

	byUser, err := store.ListByUser(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, audit.EventCreated, byUser[0].Action)
	assert.False(t, byUser[0].Timestamp.IsZero())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on cancellation")
	}
}

func TestWorkerDrainsInboxOnShutdown(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	ch := publisher.NewChannel(log)
	store := memory.NewInMemoryStore()
	w := NewWorker(store, ch.Inbox(), log)

	// Buffer events before the worker ever runs, then start it with an
	// already-cancelled context: the shutdown path must still persist them.
	require.NoError(t, ch.Emit(t.Context(), audit.Event{UserID: "alice", Action: audit.EventCreated}))
	require.NoError(t, ch.Emit(t.Context(), audit.Event{UserID: "admin", Action: audit.NoticePosted}))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	require.ErrorIs(t, w.Run(ctx), context.Canceled)

	events, err := store.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestChannelEmitDropsWhenFull(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	ch := publisher.NewChannel(log)

	// No worker draining: fill well past the buffer and ensure Emit never
	// blocks or fails.
	for range 1000 {
		require.NoError(t, ch.Emit(t.Context(), audit.Event{Action: audit.ContactMessageSent}))
	}
}
