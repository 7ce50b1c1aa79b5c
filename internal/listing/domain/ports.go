package domain

import (
	"context"
	"time"
)

// StoredObject describes one object in the storage provider.
type StoredObject struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ListOptions pages through a prefix. Objects are returned in key order after StartAfter.
type ListOptions struct {
	Limit      int
	StartAfter string
}

// ObjectStorage is the storage provider for listing images.
type ObjectStorage interface {
	// Upload stores data at key without overwriting. An existing key yields ErrConflict.
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
	// KeyFromURL maps a public URL produced by PublicURL back to its key.
	KeyFromURL(url string) (string, bool)
	List(ctx context.Context, prefix string, opts ListOptions) ([]StoredObject, error)
	Remove(ctx context.Context, keys []string) error
}

// IdentityProvider issues and verifies user sessions.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string, profile Profile) (*Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, token string) error
	VerifyToken(ctx context.Context, token string) (*User, error)
	// DeleteUser removes the identity record and revokes every session of the user.
	DeleteUser(ctx context.Context, userID string) error
}

// EventPublisher emits domain events. Publishing is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// Notifier sends user-facing notifications.
type Notifier interface {
	SendListingCreatedEmail(ctx context.Context, toEmail, listingTitle string) error
}

// Confirmer asks the acting user to approve a destructive operation.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// Confirmation is a Confirmer with a fixed answer, e.g. one taken from a request flag.
type Confirmation bool

func (c Confirmation) Confirm(context.Context, string) bool { return bool(c) }

// Event subjects.
const (
	SubjectListingCreated     = "listing.created"
	SubjectListingUpdated     = "listing.updated"
	SubjectListingSoldToggled = "listing.sold_toggled"
	SubjectListingDeleted     = "listing.deleted"
	SubjectBookmarkAdded      = "bookmark.added"
	SubjectBookmarkRemoved    = "bookmark.removed"
	SubjectAccountDeleted     = "account.deleted"
)
