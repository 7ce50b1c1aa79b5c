package domain

import "errors"

var (
	// ErrValidation marks malformed user input. Concrete failures are *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized indicates a missing, invalid, expired or revoked session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the user does not own the listing.
	ErrForbidden = errors.New("action forbidden")
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("entity not found")
	// ErrConflict indicates a uniqueness violation, such as a duplicate bookmark or email.
	ErrConflict = errors.New("already exists")
	// ErrPersistence indicates a data store or storage provider failure.
	ErrPersistence = errors.New("persistence failure")
)

// ValidationError is user input rejected before any provider call.
// Message is shown to the user as is.
type ValidationError struct {
	Message string
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// AuthError carries the reason a session was rejected.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return e.Reason }

func (e *AuthError) Is(target error) bool { return target == ErrUnauthorized }

// IdentityDeletionError reports that the identity record of a deleted account could not be removed.
type IdentityDeletionError struct {
	Err error
}

func (e *IdentityDeletionError) Error() string { return "failed to delete identity: " + e.Err.Error() }

func (e *IdentityDeletionError) Unwrap() []error { return []error{ErrPersistence, e.Err} }
