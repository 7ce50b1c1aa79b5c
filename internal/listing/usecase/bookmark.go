package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/logger"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/metrics"
)

const msgListingRequired = "Listing is required."

// BookmarkUsecase manages the user to listing bookmark relation.
type BookmarkUsecase struct {
	bookmarks domain.BookmarkRepository
	metrics   *metrics.MetricsManager
	effects   sideEffects
	now       func() time.Time
	logger    *logger.Logger
}

func NewBookmarkUsecase(deps Dependencies) *BookmarkUsecase {
	log := deps.named("BookmarkUsecase")
	return &BookmarkUsecase{
		bookmarks: deps.Bookmarks,
		metrics:   deps.Metrics,
		effects:   sideEffects{storage: deps.Storage, cache: deps.Cache, publisher: deps.Publisher, logger: log},
		now:       deps.clock(),
		logger:    log,
	}
}

func checkBookmarkArgs(user *domain.AuthenticatedUser, listingID string) error {
	if user == nil {
		return domain.ErrUnauthorized
	}
	if strings.TrimSpace(listingID) == "" {
		return domain.NewValidationError(msgListingRequired)
	}
	return nil
}

func (uc *BookmarkUsecase) IsBookmarked(ctx context.Context, user *domain.AuthenticatedUser, listingID string) (bool, error) {
	if err := checkBookmarkArgs(user, listingID); err != nil {
		return false, err
	}
	ok, err := uc.bookmarks.Exists(ctx, user.ID, listingID)
	if err != nil {
		uc.logger.Error("Failed to check bookmark", zap.String("user_id", user.ID), zap.String("listing_id", listingID), zap.Error(err))
		return false, providerError("check bookmark", err)
	}
	return ok, nil
}

// Add saves the listing for the user. A second Add for the same pair fails with domain.ErrConflict.
func (uc *BookmarkUsecase) Add(ctx context.Context, user *domain.AuthenticatedUser, listingID string) error {
	if err := checkBookmarkArgs(user, listingID); err != nil {
		return err
	}
	uc.logger.Info("Adding bookmark", zap.String("user_id", user.ID), zap.String("listing_id", listingID))

	err := uc.bookmarks.Add(ctx, &domain.Bookmark{
		UserID:    user.ID,
		ListingID: listingID,
		CreatedAt: uc.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			uc.logger.Warn("Bookmark already exists", zap.String("user_id", user.ID), zap.String("listing_id", listingID))
			return err
		}
		uc.logger.Error("Failed to add bookmark", zap.Error(err))
		return providerError("add bookmark", err)
	}

	uc.metrics.BookmarkAdded()
	uc.effects.publish(ctx, domain.SubjectBookmarkAdded, map[string]interface{}{"user_id": user.ID, "listing_id": listingID})
	return nil
}

// Remove deletes the pair. Removing a bookmark that does not exist succeeds.
func (uc *BookmarkUsecase) Remove(ctx context.Context, user *domain.AuthenticatedUser, listingID string) error {
	if err := checkBookmarkArgs(user, listingID); err != nil {
		return err
	}
	uc.logger.Info("Removing bookmark", zap.String("user_id", user.ID), zap.String("listing_id", listingID))

	if err := uc.bookmarks.Remove(ctx, user.ID, listingID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		uc.logger.Error("Failed to remove bookmark", zap.Error(err))
		return providerError("remove bookmark", err)
	}
	uc.effects.publish(ctx, domain.SubjectBookmarkRemoved, map[string]interface{}{"user_id": user.ID, "listing_id": listingID})
	return nil
}

// Toggle flips the bookmark state and returns the new state. The read and the write are
// separate calls, so a concurrent change elsewhere can interleave; an add that loses
// that race to another add still reports the listing as bookmarked.
func (uc *BookmarkUsecase) Toggle(ctx context.Context, user *domain.AuthenticatedUser, listingID string) (bool, error) {
	bookmarked, err := uc.IsBookmarked(ctx, user, listingID)
	if err != nil {
		return false, err
	}
	if bookmarked {
		if err := uc.Remove(ctx, user, listingID); err != nil {
			return true, err
		}
		return false, nil
	}
	if err := uc.Add(ctx, user, listingID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}
