package worker

import (
	"context"
	"log/slog"

	"campusboard/pkg/platform/audit"
)

// Worker consumes audit events from an inbox and persists them. Persisting is
// best-effort: a store failure is logged and the worker keeps running so a
// flaky sink never takes the pipeline down.
type Worker struct {
	store audit.Store
	inbox <-chan audit.Event
	log   *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, log *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, log: log}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.inbox:
			w.append(ctx, event)
		}
	}
}

// drain persists whatever is still buffered in the inbox at shutdown. Uses a
// fresh context since the run context is already cancelled.
func (w *Worker) drain() {
	ctx := context.Background()
	for {
		select {
		case event := <-w.inbox:
			w.append(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) append(ctx context.Context, event audit.Event) {
	if err := w.store.Append(ctx, event); err != nil {
		w.log.ErrorContext(ctx, "audit append failed",
			"action", event.Action, "error", err)
	}
}
