// Package handler exposes the calendar view over HTTP.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"campusboard/internal/calendar"
	"campusboard/internal/platform/middleware"
	"campusboard/pkg/platform/httputil"
	"campusboard/pkg/requestcontext"
)

// Handler handles the calendar endpoint.
type Handler struct {
	log      *slog.Logger
	service  *calendar.Service
	verifier middleware.TokenVerifier
}

func New(service *calendar.Service, verifier middleware.TokenVerifier, log *slog.Logger) *Handler {
	return &Handler{log: log, service: service, verifier: verifier}
}

// Register registers the calendar route with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.With(middleware.RequireSession(h.verifier, h.log)).Get("/api/calendar", h.handleUpcoming)
}

type response struct {
	Days []calendar.Day `json:"days"`
}

func (h *Handler) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	days, err := h.service.Upcoming(ctx)
	if err != nil {
		h.log.WarnContext(ctx, "calendar fetch failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	if days == nil {
		days = []calendar.Day{}
	}
	httputil.WriteJSON(w, http.StatusOK, response{Days: days})
}
