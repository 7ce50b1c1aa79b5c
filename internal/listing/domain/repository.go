package domain

import (
	"context"
	"time"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *Listing) error
	GetByID(ctx context.Context, id string) (*Listing, error)
	// Update writes the mutable fields of listing, scoped to its owner, and returns the stored record.
	Update(ctx context.Context, listing *Listing) (*Listing, error)
	// ToggleSold flips the sold flag atomically, scoped to the owner, and returns the stored record.
	ToggleSold(ctx context.Context, id, ownerID string) (*Listing, error)
	Delete(ctx context.Context, id, ownerID string) error
	ListUnsold(ctx context.Context) ([]*Listing, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Listing, error)
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
	// ImageURLs returns every non-empty image reference held by listings.
	ImageURLs(ctx context.Context) ([]string, error)
}

type BookmarkRepository interface {
	// Add returns ErrConflict when the pair already exists.
	Add(ctx context.Context, bookmark *Bookmark) error
	// Remove is idempotent.
	Remove(ctx context.Context, userID, listingID string) error
	Exists(ctx context.Context, userID, listingID string) (bool, error)
	// ListBookmarkedListings returns the listings a user bookmarked, newest bookmark first.
	// Bookmarks whose listing no longer exists are skipped.
	ListBookmarkedListings(ctx context.Context, userID string) ([]*Listing, error)
	DeleteByListings(ctx context.Context, listingIDs []string) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// ListingCache is a read-through cache for single listings. A miss is (nil, nil).
type ListingCache interface {
	GetListing(ctx context.Context, id string) (*Listing, error)
	SetListing(ctx context.Context, listing *Listing) error
	DeleteListing(ctx context.Context, ids ...string) error
}

type UserRepository interface {
	// Create returns ErrConflict when the email is taken.
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Delete(ctx context.Context, id string) error
}

// SessionStore tracks which issued tokens are still live.
type SessionStore interface {
	Register(ctx context.Context, tokenID, userID string, ttl time.Duration) error
	IsActive(ctx context.Context, tokenID string) (bool, error)
	Revoke(ctx context.Context, tokenID string) error
	RevokeAll(ctx context.Context, userID string) error
}
