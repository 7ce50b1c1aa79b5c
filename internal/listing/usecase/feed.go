package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/logger"
)

// FeedUsecase serves the read side: the public feed, a user's own listings and bookmarks.
// Every call returns a fresh snapshot.
type FeedUsecase struct {
	listings  domain.ListingRepository
	bookmarks domain.BookmarkRepository
	cache     domain.ListingCache
	logger    *logger.Logger
}

func NewFeedUsecase(deps Dependencies) *FeedUsecase {
	return &FeedUsecase{
		listings:  deps.Listings,
		bookmarks: deps.Bookmarks,
		cache:     deps.Cache,
		logger:    deps.named("FeedUsecase"),
	}
}

// ListUnsold returns available listings, newest first.
func (uc *FeedUsecase) ListUnsold(ctx context.Context) ([]*domain.Listing, error) {
	items, err := uc.listings.ListUnsold(ctx)
	if err != nil {
		uc.logger.Error("Failed to list unsold listings", zap.Error(err))
		return nil, providerError("list unsold", err)
	}
	out := items[:0]
	for _, l := range items {
		if l != nil && !l.Sold {
			out = append(out, l)
		}
	}
	return out, nil
}

// ListOwnedByUser returns every listing of ownerID, sold or not, newest first.
func (uc *FeedUsecase) ListOwnedByUser(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	items, err := uc.listings.ListByOwner(ctx, ownerID)
	if err != nil {
		uc.logger.Error("Failed to list owned listings", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, providerError("list owned", err)
	}
	return items, nil
}

// ListBookmarkedByUser returns the listings userID bookmarked. Bookmarks pointing at
// deleted listings are dropped silently.
func (uc *FeedUsecase) ListBookmarkedByUser(ctx context.Context, userID string) ([]*domain.Listing, error) {
	items, err := uc.bookmarks.ListBookmarkedListings(ctx, userID)
	if err != nil {
		uc.logger.Error("Failed to list bookmarked listings", zap.String("user_id", userID), zap.Error(err))
		return nil, providerError("list bookmarked", err)
	}
	out := items[:0]
	for _, l := range items {
		if l != nil {
			out = append(out, l)
		}
	}
	return out, nil
}

// GetListing reads through the listing cache. Cache failures fall back to the store.
func (uc *FeedUsecase) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	if uc.cache != nil {
		cached, err := uc.cache.GetListing(ctx, id)
		if err != nil {
			uc.logger.Warn("Listing cache read failed", zap.String("listing_id", id), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	listing, err := uc.listings.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			uc.logger.Error("Failed to get listing", zap.String("listing_id", id), zap.Error(err))
		}
		return nil, providerError("get listing", err)
	}

	if uc.cache != nil {
		if err := uc.cache.SetListing(ctx, listing); err != nil {
			uc.logger.Warn("Listing cache write failed", zap.String("listing_id", id), zap.Error(err))
		}
	}
	return listing, nil
}
