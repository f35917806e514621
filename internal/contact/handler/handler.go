// Package handler exposes the contact form over HTTP.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"campusboard/internal/contact"
	"campusboard/internal/platform/middleware"
	"campusboard/pkg/platform/httputil"
	"campusboard/pkg/requestcontext"
)

// Handler handles the contact endpoint.
type Handler struct {
	log      *slog.Logger
	service  *contact.Service
	verifier middleware.TokenVerifier
}

func New(service *contact.Service, verifier middleware.TokenVerifier, log *slog.Logger) *Handler {
	return &Handler{log: log, service: service, verifier: verifier}
}

// Register registers the contact route with the chi router. The form works
// for anonymous visitors; a session only enriches the audit trail.
func (h *Handler) Register(r chi.Router) {
	r.With(middleware.OptionalSession(h.verifier, h.log)).Post("/api/contact", h.handleSend)
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in contact.Input
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Send(ctx, in); err != nil {
		h.log.WarnContext(ctx, "contact send failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}
