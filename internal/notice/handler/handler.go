// Package handler exposes the notice board over HTTP.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"campusboard/internal/notice"
	"campusboard/internal/platform/middleware"
	"campusboard/internal/session"
	"campusboard/internal/transport/http/shared"
	"campusboard/pkg/platform/httputil"
	"campusboard/pkg/requestcontext"
)

// Handler handles notice endpoints.
type Handler struct {
	log          *slog.Logger
	watcher      *notice.Watcher
	submitter    *notice.Submitter
	verifier     middleware.TokenVerifier
	defaultLimit int
}

func New(watcher *notice.Watcher, submitter *notice.Submitter, verifier middleware.TokenVerifier, log *slog.Logger) *Handler {
	return &Handler{log: log, watcher: watcher, submitter: submitter, verifier: verifier, defaultLimit: notice.DashboardLimit}
}

// WithDefaultLimit overrides the feed size used when the client sends none.
func (h *Handler) WithDefaultLimit(n int) *Handler {
	if n > 0 {
		h.defaultLimit = n
	}
	return h
}

// Register registers the notice routes with the chi router. The feed is
// public; posting requires a session.
func (h *Handler) Register(r chi.Router) {
	r.With(middleware.OptionalSession(h.verifier, h.log)).Get("/api/notices", h.handleFeed)

	authed := middleware.RequireSession(h.verifier, h.log)
	r.With(authed).Post("/api/notices", h.handlePost)
	r.With(authed).Get("/api/notices/can-post", h.handleCanPost)
}

// wireNotice is the JSON shape of one notice with its rendered age.
type wireNotice struct {
	notice.Notice
	Posted string `json:"posted"`
}

type wireFeed struct {
	Notices []wireNotice `json:"notices"`
	Error   string       `json:"error,omitempty"`
}

func toWireFeed(f notice.Feed, now time.Time) wireFeed {
	out := wireFeed{Notices: make([]wireNotice, 0, len(f.Notices))}
	if f.Err != nil {
		out.Error = "notice feed temporarily unavailable"
	}
	for _, n := range f.Notices {
		out.Notices = append(out.Notices, wireNotice{Notice: n, Posted: n.PostedRelative(now)})
	}
	return out
}

// handleFeed streams the notice board as SSE, one frame per store snapshot.
// Clients that do not ask for an event stream get a single JSON snapshot.
func (h *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := h.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err == nil && n > 0 {
			limit = n
		}
	}

	if !shared.WantsStream(r) {
		notices, err := h.watcher.List(ctx, limit)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toWireFeed(notice.Feed{Notices: notices}, time.Now()))
		return
	}

	feeds := make(chan notice.Feed, 8)
	cancel, err := h.watcher.Watch(ctx, limit, func(f notice.Feed) {
		select {
		case feeds <- f:
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
		case f := <-feeds:
			if err := stream.Send(toWireFeed(f, time.Now())); err != nil {
				h.log.DebugContext(ctx, "notice stream write failed", "error", err)
				return
			}
		}
	}
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in notice.Input
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.WriteError(w, err)
		return
	}

	n, err := h.submitter.Post(ctx, in)
	if err != nil {
		h.log.WarnContext(ctx, "notice post failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, wireNotice{
		Notice: n,
		Posted: n.PostedRelative(requestcontext.Now(ctx)),
	})
}

// handleCanPost tells the UI whether to render the posting form.
func (h *Handler) handleCanPost(w http.ResponseWriter, r *http.Request) {
	id := session.FromContext(r.Context())
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{
		"canPost": h.submitter.CanPost(id),
	})
}
