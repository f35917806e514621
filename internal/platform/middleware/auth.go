package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"campusboard/internal/session"
	dErrors "campusboard/pkg/domain-errors"
	"campusboard/pkg/platform/httputil"
	"campusboard/pkg/requestcontext"
)

// TokenVerifier resolves a bearer token into a session identity.
type TokenVerifier interface {
	Verify(token string) (session.Identity, error)
}

// RequireSession rejects requests without a valid bearer token and stores
// the resolved identity on the context.
func RequireSession(verifier TokenVerifier, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := bearerToken(r)
			if !ok {
				log.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx))
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}
			id, err := verifier.Verify(token)
			if err != nil {
				log.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx))
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(session.WithContext(ctx, id)))
		})
	}
}

// OptionalSession resolves an identity when a valid token is present and
// passes the request through either way. Endpoints that work for anonymous
// visitors use this to still personalize for signed-in ones.
func OptionalSession(verifier TokenVerifier, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if token, ok := bearerToken(r); ok {
				id, err := verifier.Verify(token)
				if err != nil {
					log.DebugContext(ctx, "ignoring invalid token on optional endpoint", "error", err)
				} else {
					ctx = session.WithContext(ctx, id)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, prefix)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}
