// Package handler exposes the event domain over HTTP.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"campusboard/internal/event"
	"campusboard/internal/platform/middleware"
	"campusboard/internal/transport/http/shared"
	"campusboard/pkg/platform/httputil"
	"campusboard/pkg/requestcontext"
)

// Handler handles event endpoints.
type Handler struct {
	log       *slog.Logger
	watcher   *event.Watcher
	submitter *event.Submitter
	verifier  middleware.TokenVerifier
}

func New(watcher *event.Watcher, submitter *event.Submitter, verifier middleware.TokenVerifier, log *slog.Logger) *Handler {
	return &Handler{log: log, watcher: watcher, submitter: submitter, verifier: verifier}
}

// Register registers the event routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	authed := middleware.RequireSession(h.verifier, h.log)
	r.With(authed).Get("/api/events/today", h.handleToday)
	r.With(authed).Post("/api/events", h.handleSubmit)
	r.With(authed).Post("/api/events/validate", h.handleValidate)
}

// wireEvent is the JSON shape of one event with its status as of delivery.
type wireEvent struct {
	event.Event
	Status event.Status `json:"status"`
}

type wireList struct {
	Events []wireEvent `json:"events"`
	Error  string      `json:"error,omitempty"`
}

func toWireList(l event.List, now time.Time) wireList {
	out := wireList{Events: make([]wireEvent, 0, len(l.Events))}
	if l.Err != nil {
		out.Error = "event feed temporarily unavailable"
	}
	for _, ev := range l.Events {
		out.Events = append(out.Events, wireEvent{Event: ev, Status: ev.StatusAt(now)})
	}
	return out
}

// handleToday streams the caller's events for the current day as SSE, one
// frame per store snapshot, until the client disconnects. Clients that do not
// ask for an event stream get a single JSON snapshot instead.
func (h *Handler) handleToday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !shared.WantsStream(r) {
		events, err := h.watcher.Today(ctx)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toWireList(event.List{Events: events}, requestcontext.Now(ctx)))
		return
	}

	lists := make(chan event.List, 8)
	cancel, err := h.watcher.WatchToday(ctx, func(l event.List) {
		select {
		case lists <- l:
		case <-ctx.Done():
		}
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defer cancel()

	stream, err := shared.NewStreamer(w)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case l := <-lists:
			if err := stream.Send(toWireList(l, time.Now())); err != nil {
				h.log.DebugContext(ctx, "event stream write failed", "error", err)
				return
			}
		}
	}
}

type submitResponse struct {
	Event      wireEvent `json:"event"`
	NavigateTo string    `json:"navigateTo"`
}

// handleSubmit validates and creates an event in one request. A concurrent
// identical submission gets a conflict while this one is in flight; once it
// resolves the guard key is released.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in event.Input
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.WriteError(w, err)
		return
	}

	ev, err := h.submitter.Submit(ctx, in)
	if err != nil {
		h.log.WarnContext(ctx, "event submission failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}

	now := requestcontext.Now(ctx)
	httputil.WriteJSON(w, http.StatusCreated, submitResponse{
		Event:      wireEvent{Event: ev, Status: ev.StatusAt(now)},
		NavigateTo: "/calendar",
	})
}

// handleValidate runs the validation stage only, so the client can show the
// confirmation dialog before committing. Nothing is recorded or stored.
func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in event.Input
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.submitter.Prepare(ctx, in)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.submitter.Cancel(ctx, p)

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"valid": true})
}
