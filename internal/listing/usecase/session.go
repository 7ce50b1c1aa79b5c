package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/logger"
)

const (
	reasonMissingToken = "Unauthorized"
	reasonInvalidToken = "Invalid session"
)

// SessionGuard resolves bearer tokens into the explicit session object used by the workflow.
type SessionGuard struct {
	identity domain.IdentityProvider
	logger   *logger.Logger
}

func NewSessionGuard(deps Dependencies) *SessionGuard {
	return &SessionGuard{identity: deps.Identity, logger: deps.named("SessionGuard")}
}

// RequireSession returns the authenticated user for token.
// A missing or rejected token yields an *domain.AuthError; that is the normal
// "not signed in" outcome and is not logged as a failure.
func (g *SessionGuard) RequireSession(ctx context.Context, token string) (*domain.AuthenticatedUser, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, &domain.AuthError{Reason: reasonMissingToken}
	}
	user, err := g.identity.VerifyToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			g.logger.Debug("Session rejected", zap.Error(err))
			return nil, &domain.AuthError{Reason: reasonInvalidToken}
		}
		g.logger.Error("Failed to verify session", zap.Error(err))
		return nil, providerError("verify session", err)
	}
	return user.Authenticated(), nil
}
