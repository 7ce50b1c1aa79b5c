package usecase

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/logger"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/metrics"
)

const (
	// DeleteConfirmationText must be typed by the user to delete an account.
	DeleteConfirmationText = "DELETE"

	msgEmailInvalid        = "A valid email is required."
	msgPasswordTooShort    = "Password must be at least 6 characters."
	msgCredentialsRequired = "Email and password are required."
	msgConfirmDelete       = "Type DELETE to confirm."

	minPasswordLength = 6
	storagePageSize   = 100
)

// AccountUsecase covers sign-up, sign-in, sign-out and the account deletion cascade.
type AccountUsecase struct {
	identity  domain.IdentityProvider
	listings  domain.ListingRepository
	bookmarks domain.BookmarkRepository
	storage   domain.ObjectStorage
	metrics   *metrics.MetricsManager
	effects   sideEffects
	pageSize  int
	logger    *logger.Logger
}

func NewAccountUsecase(deps Dependencies) *AccountUsecase {
	log := deps.named("AccountUsecase")
	return &AccountUsecase{
		identity:  deps.Identity,
		listings:  deps.Listings,
		bookmarks: deps.Bookmarks,
		storage:   deps.Storage,
		metrics:   deps.Metrics,
		effects:   sideEffects{storage: deps.Storage, cache: deps.Cache, publisher: deps.Publisher, logger: log},
		pageSize:  storagePageSize,
		logger:    log,
	}
}

func (uc *AccountUsecase) SignUp(ctx context.Context, email, password string, profile domain.Profile) (*domain.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, domain.NewValidationError(msgEmailInvalid)
	}
	if len(password) < minPasswordLength {
		return nil, domain.NewValidationError(msgPasswordTooShort)
	}
	profile.FirstName = strings.TrimSpace(profile.FirstName)
	profile.LastName = strings.TrimSpace(profile.LastName)

	uc.logger.Info("Signing up user", zap.String("email", email))
	session, err := uc.identity.SignUp(ctx, email, password, profile)
	if err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			uc.logger.Error("Sign up failed", zap.String("email", email), zap.Error(err))
		}
		return nil, providerError("sign up", err)
	}
	return session, nil
}

func (uc *AccountUsecase) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, domain.NewValidationError(msgCredentialsRequired)
	}
	session, err := uc.identity.SignInWithPassword(ctx, email, password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			uc.logger.Info("Sign in rejected", zap.String("email", email))
		} else {
			uc.logger.Error("Sign in failed", zap.String("email", email), zap.Error(err))
		}
		return nil, providerError("sign in", err)
	}
	return session, nil
}

// SignOut revokes token. Signing out twice, or with an expired token, succeeds.
func (uc *AccountUsecase) SignOut(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	if err := uc.identity.SignOut(ctx, token); err != nil && !errors.Is(err, domain.ErrUnauthorized) {
		uc.logger.Error("Sign out failed", zap.Error(err))
		return providerError("sign out", err)
	}
	return nil
}

// CurrentUser returns the identity record behind token.
func (uc *AccountUsecase) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, &domain.AuthError{Reason: reasonMissingToken}
	}
	user, err := uc.identity.VerifyToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return nil, &domain.AuthError{Reason: reasonInvalidToken}
		}
		return nil, providerError("verify session", err)
	}
	return user, nil
}

// DeleteAccount removes everything the token's user owns and then the identity itself.
// Storage cleanup is best effort and never fails the call.
func (uc *AccountUsecase) DeleteAccount(ctx context.Context, token, confirmation string) error {
	if strings.TrimSpace(token) == "" {
		return &domain.AuthError{Reason: reasonMissingToken}
	}
	user, err := uc.identity.VerifyToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return &domain.AuthError{Reason: reasonInvalidToken}
		}
		uc.logger.Error("Failed to verify token for account deletion", zap.Error(err))
		return providerError("verify session", err)
	}
	// Nothing is mutated before the confirmation matches.
	if confirmation != DeleteConfirmationText {
		return domain.NewValidationError(msgConfirmDelete)
	}

	log := uc.logger.With(zap.String("user_id", user.ID))
	log.Info("Deleting account")

	owned, err := uc.listings.ListByOwner(ctx, user.ID)
	if err != nil {
		log.Error("Failed to list owned listings", zap.Error(err))
		return providerError("list owned listings", err)
	}
	ids := make([]string, 0, len(owned))
	for _, l := range owned {
		ids = append(ids, l.ID)
	}

	if len(ids) > 0 {
		if _, err := uc.bookmarks.DeleteByListings(ctx, ids); err != nil {
			log.Error("Failed to delete bookmarks of owned listings", zap.Error(err))
			return providerError("delete bookmarks", err)
		}
	}
	if _, err := uc.bookmarks.DeleteByUser(ctx, user.ID); err != nil {
		log.Error("Failed to delete user's bookmarks", zap.Error(err))
		return providerError("delete bookmarks", err)
	}
	deleted, err := uc.listings.DeleteByOwner(ctx, user.ID)
	if err != nil {
		log.Error("Failed to delete listings", zap.Error(err))
		return providerError("delete listings", err)
	}

	objects := uc.purgeUserObjects(ctx, user.ID)

	if err := uc.identity.DeleteUser(ctx, user.ID); err != nil {
		log.Error("Failed to delete identity", zap.Error(err))
		return &domain.IdentityDeletionError{Err: err}
	}

	uc.effects.invalidate(ctx, ids...)
	uc.metrics.AccountDeleted()
	uc.effects.publish(ctx, domain.SubjectAccountDeleted, map[string]interface{}{
		"user_id":          user.ID,
		"listings_deleted": deleted,
		"objects_removed":  objects,
	})
	log.Info("Account deleted", zap.Int64("listings_deleted", deleted), zap.Int("objects_removed", objects))
	return nil
}

// purgeUserObjects removes every object under the user's folder, one page at a time.
func (uc *AccountUsecase) purgeUserObjects(ctx context.Context, userID string) int {
	prefix := userID + "/"
	removed := 0
	startAfter := ""
	for {
		objs, err := uc.storage.List(ctx, prefix, domain.ListOptions{Limit: uc.pageSize, StartAfter: startAfter})
		if err != nil {
			uc.logger.Warn("Failed to list stored objects", zap.String("prefix", prefix), zap.Error(err))
			return removed
		}
		if len(objs) == 0 {
			return removed
		}
		keys := make([]string, 0, len(objs))
		for _, o := range objs {
			keys = append(keys, o.Key)
		}
		if err := uc.storage.Remove(ctx, keys); err != nil {
			uc.logger.Warn("Failed to remove stored objects", zap.String("prefix", prefix), zap.Error(err))
			return removed
		}
		removed += len(keys)
		if len(objs) < uc.pageSize {
			return removed
		}
		startAfter = objs[len(objs)-1].Key
	}
}
