package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
)

const listingKeyPrefix = "listing:"

type cachedListing struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	DisplayName string    `json:"display_name"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Location    string    `json:"item_location"`
	ImageURL    string    `json:"image_url,omitempty"`
	Sold        bool      `json:"sold"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewListingCache(client *redis.Client, ttl time.Duration) *ListingCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ListingCache{client: client, ttl: ttl}
}

func (c *ListingCache) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	data, err := c.client.Get(ctx, listingKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cl cachedListing
	if err := json.Unmarshal(data, &cl); err != nil {
		return nil, err
	}
	return &domain.Listing{
		ID:          cl.ID,
		OwnerID:     cl.OwnerID,
		DisplayName: cl.DisplayName,
		Title:       cl.Title,
		Description: cl.Description,
		Price:       cl.Price,
		Category:    cl.Category,
		Location:    cl.Location,
		ImageURL:    cl.ImageURL,
		Sold:        cl.Sold,
		CreatedAt:   cl.CreatedAt.UTC(),
		UpdatedAt:   cl.UpdatedAt.UTC(),
	}, nil
}

func (c *ListingCache) SetListing(ctx context.Context, listing *domain.Listing) error {
	data, err := json.Marshal(cachedListing{
		ID:          listing.ID,
		OwnerID:     listing.OwnerID,
		DisplayName: listing.DisplayName,
		Title:       listing.Title,
		Description: listing.Description,
		Price:       listing.Price,
		Category:    listing.Category,
		Location:    listing.Location,
		ImageURL:    listing.ImageURL,
		Sold:        listing.Sold,
		CreatedAt:   listing.CreatedAt,
		UpdatedAt:   listing.UpdatedAt,
	})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, listingKeyPrefix+listing.ID, data, c.ttl).Err()
}

func (c *ListingCache) DeleteListing(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = listingKeyPrefix + id
	}
	return c.client.Del(ctx, keys...).Err()
}
