package usecase

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/logger"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/metrics"
)

const deleteListingPrompt = "Are you sure you want to delete this listing?"

// LifecycleUsecase owns the create, edit, sold toggle and delete rules of a listing
// and keeps its image object and bookmarks consistent with it.
type LifecycleUsecase struct {
	listings      domain.ListingRepository
	bookmarks     domain.BookmarkRepository
	storage       domain.ObjectStorage
	notifier      domain.Notifier
	metrics       *metrics.MetricsManager
	effects       sideEffects
	maxImageBytes int64
	now           func() time.Time
	newID         func() string
	logger        *logger.Logger
}

func NewLifecycleUsecase(deps Dependencies, maxImageBytes int64) *LifecycleUsecase {
	log := deps.named("LifecycleUsecase")
	return &LifecycleUsecase{
		listings:  deps.Listings,
		bookmarks: deps.Bookmarks,
		storage:   deps.Storage,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		effects: sideEffects{
			storage:   deps.Storage,
			cache:     deps.Cache,
			publisher: deps.Publisher,
			logger:    log,
		},
		maxImageBytes: maxImageBytes,
		now:           deps.clock(),
		newID:         deps.idGenerator(),
		logger:        log,
	}
}

// Create validates fields, uploads the optional image under the owner's folder and
// stores a new unsold listing. Validation failures never reach a provider.
func (uc *LifecycleUsecase) Create(ctx context.Context, user *domain.AuthenticatedUser, fields domain.ListingFields, image *domain.ImageFile) (*domain.Listing, error) {
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	title, err := domain.ValidateTitle(fields.Title)
	if err != nil {
		return nil, err
	}
	price, err := domain.ParsePrice(fields.Price)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateImage(image, uc.maxImageBytes); err != nil {
		return nil, err
	}

	uc.logger.Info("Creating listing", zap.String("owner_id", user.ID), zap.String("title", title))

	now := uc.now().UTC()
	listing := &domain.Listing{
		ID:          uc.newID(),
		OwnerID:     user.ID,
		DisplayName: user.DisplayLabel(),
		Title:       title,
		Description: strings.TrimSpace(fields.Description),
		Price:       price,
		Category:    strings.TrimSpace(fields.Category),
		Location:    strings.TrimSpace(fields.Location),
		Sold:        false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var uploadedKey string
	if image != nil {
		key, url, err := uc.uploadImage(ctx, user.ID, image, now)
		if err != nil {
			return nil, err
		}
		uploadedKey = key
		listing.ImageURL = url
	}

	if err := uc.listings.Create(ctx, listing); err != nil {
		uc.logger.Error("Failed to save listing", zap.String("listing_id", listing.ID), zap.Error(err))
		if uploadedKey != "" {
			uc.effects.removeObjects(ctx, uploadedKey)
		}
		return nil, providerError("create listing", err)
	}

	uc.metrics.ListingCreated()
	uc.effects.publish(ctx, domain.SubjectListingCreated, listingEvent(listing))
	if uc.notifier != nil && user.Email != "" {
		if err := uc.notifier.SendListingCreatedEmail(ctx, user.Email, listing.Title); err != nil {
			uc.logger.Warn("Failed to send listing created email", zap.String("listing_id", listing.ID), zap.Error(err))
		}
	}

	uc.logger.Info("Listing created", zap.String("listing_id", listing.ID))
	return listing, nil
}

// Update applies patch to a listing the user owns. A replacement image is uploaded first
// and the previous object is removed once the record points at the new one.
func (uc *LifecycleUsecase) Update(ctx context.Context, user *domain.AuthenticatedUser, listingID string, patch domain.ListingPatch, image *domain.ImageFile) (*domain.Listing, error) {
	if user == nil {
		return nil, domain.ErrUnauthorized
	}

	var (
		title string
		price float64
		err   error
	)
	if patch.Title != nil {
		if title, err = domain.ValidateTitle(*patch.Title); err != nil {
			return nil, err
		}
	}
	if patch.Price != nil {
		if price, err = domain.ParsePrice(*patch.Price); err != nil {
			return nil, err
		}
	}
	if err := domain.ValidateImage(image, uc.maxImageBytes); err != nil {
		return nil, err
	}

	existing, err := uc.ownedListing(ctx, user, listingID)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Updating listing", zap.String("listing_id", listingID), zap.String("owner_id", user.ID))

	next := *existing
	if patch.Title != nil {
		next.Title = title
	}
	if patch.Price != nil {
		next.Price = price
	}
	if patch.Description != nil {
		next.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Category != nil {
		next.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Location != nil {
		next.Location = strings.TrimSpace(*patch.Location)
	}
	now := uc.now().UTC()
	next.UpdatedAt = now

	var uploadedKey string
	if image != nil {
		key, url, err := uc.uploadImage(ctx, user.ID, image, now)
		if err != nil {
			return nil, err
		}
		uploadedKey = key
		next.ImageURL = url
	}

	stored, err := uc.listings.Update(ctx, &next)
	if err != nil {
		uc.logger.Error("Failed to update listing", zap.String("listing_id", listingID), zap.Error(err))
		if uploadedKey != "" {
			uc.effects.removeObjects(ctx, uploadedKey)
		}
		return nil, providerError("update listing", err)
	}

	if uploadedKey != "" && existing.ImageURL != "" && existing.ImageURL != stored.ImageURL {
		uc.effects.removeImage(ctx, existing.ImageURL)
	}
	uc.effects.invalidate(ctx, stored.ID)
	uc.metrics.ListingUpdated()
	uc.effects.publish(ctx, domain.SubjectListingUpdated, listingEvent(stored))
	return stored, nil
}

// ToggleSold flips the sold flag in one atomic store update and returns the stored record.
func (uc *LifecycleUsecase) ToggleSold(ctx context.Context, user *domain.AuthenticatedUser, listingID string) (*domain.Listing, error) {
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if _, err := uc.ownedListing(ctx, user, listingID); err != nil {
		return nil, err
	}

	stored, err := uc.listings.ToggleSold(ctx, listingID, user.ID)
	if err != nil {
		uc.logger.Error("Failed to toggle sold flag", zap.String("listing_id", listingID), zap.Error(err))
		return nil, providerError("toggle sold", err)
	}

	uc.logger.Info("Listing sold flag toggled", zap.String("listing_id", listingID), zap.Bool("sold", stored.Sold))
	uc.effects.invalidate(ctx, stored.ID)
	uc.metrics.ListingUpdated()
	uc.effects.publish(ctx, domain.SubjectListingSoldToggled, map[string]interface{}{
		"listing_id": stored.ID,
		"owner_id":   stored.OwnerID,
		"sold":       stored.Sold,
	})
	return stored, nil
}

// Delete removes a listing after confirm approves it, together with the bookmarks that
// reference it and its image object. A declined confirmation returns (false, nil).
func (uc *LifecycleUsecase) Delete(ctx context.Context, user *domain.AuthenticatedUser, listingID string, confirm domain.Confirmer) (bool, error) {
	if user == nil {
		return false, domain.ErrUnauthorized
	}
	if confirm == nil || !confirm.Confirm(ctx, deleteListingPrompt) {
		uc.logger.Debug("Listing deletion cancelled", zap.String("listing_id", listingID))
		return false, nil
	}

	existing, err := uc.ownedListing(ctx, user, listingID)
	if err != nil {
		return false, err
	}

	uc.logger.Info("Deleting listing", zap.String("listing_id", listingID), zap.String("owner_id", user.ID))

	removed, err := uc.bookmarks.DeleteByListings(ctx, []string{listingID})
	if err != nil {
		uc.logger.Error("Failed to delete bookmarks of listing", zap.String("listing_id", listingID), zap.Error(err))
		return false, providerError("delete bookmarks", err)
	}
	if err := uc.listings.Delete(ctx, listingID, user.ID); err != nil {
		uc.logger.Error("Failed to delete listing", zap.String("listing_id", listingID), zap.Error(err))
		return false, providerError("delete listing", err)
	}

	uc.effects.removeImage(ctx, existing.ImageURL)
	uc.effects.invalidate(ctx, listingID)
	uc.metrics.ListingDeleted()
	uc.effects.publish(ctx, domain.SubjectListingDeleted, map[string]interface{}{
		"listing_id":        listingID,
		"owner_id":          user.ID,
		"bookmarks_removed": removed,
	})
	return true, nil
}

func (uc *LifecycleUsecase) ownedListing(ctx context.Context, user *domain.AuthenticatedUser, listingID string) (*domain.Listing, error) {
	existing, err := uc.listings.GetByID(ctx, listingID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			uc.logger.Error("Failed to load listing", zap.String("listing_id", listingID), zap.Error(err))
		}
		return nil, providerError("load listing", err)
	}
	if existing.OwnerID != user.ID {
		uc.logger.Warn("User forbidden to modify listing",
			zap.String("listing_id", listingID),
			zap.String("owner_id", existing.OwnerID),
			zap.String("requesting_user", user.ID))
		return nil, domain.ErrForbidden
	}
	return existing, nil
}

func (uc *LifecycleUsecase) uploadImage(ctx context.Context, ownerID string, image *domain.ImageFile, at time.Time) (key, url string, err error) {
	key = ImageKey(ownerID, at, image.Name)
	if err := uc.storage.Upload(ctx, key, image.Data, image.ContentType); err != nil {
		uc.logger.Error("Failed to upload image", zap.String("key", key), zap.Error(err))
		return "", "", providerError("upload image", err)
	}
	return key, uc.storage.PublicURL(key), nil
}

// ImageKey builds the storage key {ownerID}/{unixMillis}_{filename} for an upload.
func ImageKey(ownerID string, at time.Time, filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "image"
	}
	return fmt.Sprintf("%s/%d_%s", ownerID, at.UnixMilli(), name)
}
