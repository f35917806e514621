// Package shared holds transport helpers used by the per-domain handlers.
package shared

import (
	"encoding/json"
	"net/http"
	"strings"

	dErrors "campusboard/pkg/domain-errors"
)

// WantsStream reports whether the client asked for server-sent events.
// Feed endpoints fall back to a one-shot JSON snapshot otherwise.
func WantsStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

// Streamer writes server-sent events. Each Send emits one `data:` frame and
// flushes so snapshots reach the client immediately.
type Streamer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewStreamer prepares w for an SSE response. Fails when the underlying
// writer cannot flush, which only happens behind buffering proxies.
func NewStreamer(w http.ResponseWriter) (*Streamer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInternal, "streaming unsupported")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &Streamer{w: w, flusher: flusher}, nil
}

// Send marshals v and writes it as one event frame.
func (s *Streamer) Send(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := s.w.Write(payload); err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("\n\n")); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
