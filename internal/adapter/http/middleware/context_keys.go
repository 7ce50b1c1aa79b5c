package middleware

import (
	"context"

	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
)

// ContextKey is the type of the request context keys set by this package.
type ContextKey string

const (
	UserCtxKey      = ContextKey("user")
	TokenCtxKey     = ContextKey("access_token")
	RequestIDCtxKey = ContextKey("request_id")
)

// UserFromContext returns the user stored by RequireSession.
func UserFromContext(ctx context.Context) (*domain.AuthenticatedUser, bool) {
	user, ok := ctx.Value(UserCtxKey).(*domain.AuthenticatedUser)
	return user, ok && user != nil
}

// TokenFromContext returns the access token accepted by RequireSession.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(TokenCtxKey).(string)
	return token
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDCtxKey).(string)
	return id
}
