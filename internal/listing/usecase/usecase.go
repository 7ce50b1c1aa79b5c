package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/logger"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/metrics"
)

// Dependencies are the collaborators shared by the marketplace usecases.
// Cache, Publisher, Notifier and Metrics are optional.
type Dependencies struct {
	Listings  domain.ListingRepository
	Bookmarks domain.BookmarkRepository
	Storage   domain.ObjectStorage
	Identity  domain.IdentityProvider
	Cache     domain.ListingCache
	Publisher domain.EventPublisher
	Notifier  domain.Notifier
	Metrics   *metrics.MetricsManager
	Logger    *logger.Logger

	// Now and NewID default to time.Now and uuid.NewString.
	Now   func() time.Time
	NewID func() string
}

func (d Dependencies) clock() func() time.Time {
	if d.Now != nil {
		return d.Now
	}
	return time.Now
}

func (d Dependencies) idGenerator() func() string {
	if d.NewID != nil {
		return d.NewID
	}
	return uuid.NewString
}

func (d Dependencies) named(name string) *logger.Logger {
	if d.Logger == nil {
		return logger.NewNop().Named(name)
	}
	return d.Logger.Named(name)
}

// providerError converts a provider failure to ErrPersistence. Domain sentinels pass through.
func providerError(op string, err error) error {
	for _, sentinel := range []error{
		domain.ErrNotFound,
		domain.ErrForbidden,
		domain.ErrConflict,
		domain.ErrUnauthorized,
		domain.ErrValidation,
		domain.ErrPersistence,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrPersistence, op, err)
}

// sideEffects groups the best-effort follow-ups of a mutation. None of them fail the caller.
type sideEffects struct {
	storage   domain.ObjectStorage
	cache     domain.ListingCache
	publisher domain.EventPublisher
	logger    *logger.Logger
}

func (s sideEffects) publish(ctx context.Context, subject string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, subject, data); err != nil {
		s.logger.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

func (s sideEffects) invalidate(ctx context.Context, ids ...string) {
	if s.cache == nil || len(ids) == 0 {
		return
	}
	if err := s.cache.DeleteListing(ctx, ids...); err != nil {
		s.logger.Warn("Failed to invalidate listing cache", zap.Strings("listing_ids", ids), zap.Error(err))
	}
}

func (s sideEffects) removeObjects(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := s.storage.Remove(context.WithoutCancel(ctx), keys); err != nil {
		s.logger.Warn("Failed to remove stored objects", zap.Strings("keys", keys), zap.Error(err))
	}
}

// removeImage deletes the object behind a public image URL, if it belongs to our storage.
func (s sideEffects) removeImage(ctx context.Context, imageURL string) {
	if imageURL == "" {
		return
	}
	key, ok := s.storage.KeyFromURL(imageURL)
	if !ok {
		s.logger.Debug("Image URL is not managed by storage, skipping removal", zap.String("image_url", imageURL))
		return
	}
	s.removeObjects(ctx, key)
}

func listingEvent(l *domain.Listing) map[string]interface{} {
	return map[string]interface{}{
		"listing_id": l.ID,
		"owner_id":   l.OwnerID,
		"title":      l.Title,
		"price":      l.Price,
		"sold":       l.Sold,
		"image_url":  l.ImageURL,
		"created_at": l.CreatedAt.Format(time.RFC3339Nano),
	}
}
