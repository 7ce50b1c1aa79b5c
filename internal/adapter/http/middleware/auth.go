package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/logger"
)

// AccessTokenCookie is the cookie checked when no Authorization header is sent.
const AccessTokenCookie = "sb-access-token"

type SessionVerifier interface {
	RequireSession(ctx context.Context, token string) (*domain.AuthenticatedUser, error)
}

// TokenFromRequest reads a bearer token from the Authorization header or the access token cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

// RequireSession resolves the request's token into a user. Unresolved browser requests are
// redirected to entryPath; API requests get a 401.
func RequireSession(guard SessionVerifier, entryPath string, log *logger.Logger) func(http.Handler) http.Handler {
	log = log.Named("RequireSession")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			user, err := guard.RequireSession(r.Context(), token)
			if err != nil {
				if !errors.Is(err, domain.ErrUnauthorized) {
					log.Error("Session check failed", zap.String("path", r.URL.Path), zap.Error(err))
					writeJSONError(w, http.StatusInternalServerError, "Failed to verify session")
					return
				}
				if acceptsHTML(r) {
					http.Redirect(w, r, entryPath, http.StatusSeeOther)
					return
				}
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), UserCtxKey, user)
			ctx = context.WithValue(ctx, TokenCtxKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func acceptsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
