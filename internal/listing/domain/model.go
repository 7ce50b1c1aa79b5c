package domain

import (
	"strings"
	"time"
)

// AnonymousLabel is the owner display label used when the owner has no email.
const AnonymousLabel = "Anonymous"

// Listing is one item offered by a user.
// ID, OwnerID and CreatedAt never change after creation.
type Listing struct {
	ID          string
	OwnerID     string
	DisplayName string // owner contact label, usually the owner's email
	Title       string
	Description string
	Price       float64
	Category    string
	Location    string
	ImageURL    string // empty when the listing has no image
	Sold        bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Bookmark is a user's saved reference to a listing. (UserID, ListingID) is unique.
type Bookmark struct {
	UserID    string
	ListingID string
	CreatedAt time.Time
}

// ListingFields is the raw form input for a new listing. Price is parsed by the lifecycle manager.
type ListingFields struct {
	Title       string
	Description string
	Price       string
	Category    string
	Location    string
}

// ListingPatch carries an edit. Nil fields keep their current value.
type ListingPatch struct {
	Title       *string
	Description *string
	Price       *string
	Category    *string
	Location    *string
}

// ImageFile is an uploaded image attachment.
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// AuthenticatedUser is the explicit session object handed to every workflow operation.
type AuthenticatedUser struct {
	ID    string
	Email string
}

// DisplayLabel returns the label stored on listings the user creates.
func (u *AuthenticatedUser) DisplayLabel() string {
	if email := strings.TrimSpace(u.Email); email != "" {
		return email
	}
	return AnonymousLabel
}

// User is the identity record kept by the identity provider.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
}

// Profile holds the sign-up profile fields.
type Profile struct {
	FirstName string
	LastName  string
}

// Session is an issued access token together with its owner.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *User
}

func (u *User) Authenticated() *AuthenticatedUser {
	return &AuthenticatedUser{ID: u.ID, Email: u.Email}
}
