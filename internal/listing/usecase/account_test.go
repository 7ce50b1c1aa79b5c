package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
)

func TestAccount_SignUpValidation(t *testing.T) {
	td, deps := newTestDeps()
	uc := NewAccountUsecase(deps)

	_, err := uc.SignUp(context.Background(), "not-an-email", "secret1", domain.Profile{})
	assert.EqualError(t, err, msgEmailInvalid)
	_, err = uc.SignUp(context.Background(), "ana@utrgv.edu", "123", domain.Profile{})
	assert.EqualError(t, err, msgPasswordTooShort)
	td.identity.AssertNumberOfCalls(t, "SignUp", 0)
}

func TestAccount_SignUpNormalizes(t *testing.T) {
	td, deps := newTestDeps()
	uc := NewAccountUsecase(deps)

	session := &domain.Session{AccessToken: "tok"}
	td.identity.On("SignUp", mock.Anything, "ana@utrgv.edu", "secret1", domain.Profile{FirstName: "Ana", LastName: "Lopez"}).
		Return(session, nil).Once()

	got, err := uc.SignUp(context.Background(), "  Ana@UTRGV.edu ", "secret1", domain.Profile{FirstName: " Ana", LastName: "Lopez "})
	require.NoError(t, err)
	assert.Same(t, session, got)
}

func TestAccount_SignUpDuplicate(t *testing.T) {
	td, deps := newTestDeps()
	uc := NewAccountUsecase(deps)
	td.identity.On("SignUp", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, domain.ErrConflict).Once()

	_, err := uc.SignUp(context.Background(), "ana@utrgv.edu", "secret1", domain.Profile{})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAccount_SignIn(t *testing.T) {
	td, deps := newTestDeps()
	uc := NewAccountUsecase(deps)
	td.identity.On("SignInWithPassword", mock.Anything, "ana@utrgv.edu", "wrong").Return(nil, domain.ErrUnauthorized).Once()

	_, err := uc.SignIn(context.Background(), "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = uc.SignIn(context.Background(), "ana@utrgv.edu", "wrong")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAccount_SignOutIsIdempotent(t *testing.T) {
	td, deps := newTestDeps()
	uc := NewAccountUsecase(deps)
	td.identity.On("SignOut", mock.Anything, "expired").Return(domain.ErrUnauthorized).Once()

	assert.NoError(t, uc.SignOut(context.Background(), ""))
	assert.NoError(t, uc.SignOut(context.Background(), "expired"))
}

func TestAccount_DeleteAccount_Prechecks(t *testing.T) {
	td, deps := newTestDeps()
	uc := NewAccountUsecase(deps)
	td.identity.On("VerifyToken", mock.Anything, "bad").Return(nil, domain.ErrUnauthorized).Twice()
	td.identity.On("VerifyToken", mock.Anything, "tok").Return(&domain.User{ID: "user-1"}, nil).Once()

	err := uc.DeleteAccount(context.Background(), "", DeleteConfirmationText)
	assert.EqualError(t, err, "Unauthorized")
	td.identity.AssertNumberOfCalls(t, "VerifyToken", 0)

	err = uc.DeleteAccount(context.Background(), "bad", DeleteConfirmationText)
	assert.EqualError(t, err, "Invalid session")

	// An invalid session wins over a missing confirmation.
	err = uc.DeleteAccount(context.Background(), "bad", "")
	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid session", authErr.Reason)

	err = uc.DeleteAccount(context.Background(), "tok", "delete")
	assert.EqualError(t, err, msgConfirmDelete)

	td.identity.AssertExpectations(t)
	td.identity.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
	td.listings.AssertNotCalled(t, "ListByOwner", mock.Anything, mock.Anything)
	td.bookmarks.AssertNotCalled(t, "DeleteByUser", mock.Anything, mock.Anything)
}

func TestAccount_DeleteAccount_StorageFailureIsBestEffort(t *testing.T) {
	td, deps := newTestDeps()
	uc := NewAccountUsecase(deps)

	td.identity.On("VerifyToken", mock.Anything, "tok").Return(&domain.User{ID: "u1"}, nil).Once()
	td.listings.On("ListByOwner", mock.Anything, "u1").Return([]*domain.Listing{{ID: "l1"}, {ID: "l2"}}, nil).Once()
	td.bookmarks.On("DeleteByListings", mock.Anything, []string{"l1", "l2"}).Return(int64(3), nil).Once()
	td.bookmarks.On("DeleteByUser", mock.Anything, "u1").Return(int64(1), nil).Once()
	td.listings.On("DeleteByOwner", mock.Anything, "u1").Return(int64(2), nil).Once()
	td.storage.On("List", mock.Anything, "u1/", domain.ListOptions{Limit: 100}).Return(nil, errors.New("s3 down")).Once()
	td.identity.On("DeleteUser", mock.Anything, "u1").Return(nil).Once()

	require.NoError(t, uc.DeleteAccount(context.Background(), "tok", DeleteConfirmationText))
	td.storage.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
	td.identity.AssertExpectations(t)
	td.cache.AssertCalled(t, "DeleteListing", mock.Anything, []string{"l1", "l2"})
	td.publisher.AssertCalled(t, "Publish", mock.Anything, domain.SubjectAccountDeleted, mock.Anything)
}

func TestAccount_DeleteAccount_PaginatesStorage(t *testing.T) {
	td, deps := newTestDeps()
	uc := NewAccountUsecase(deps)
	uc.pageSize = 2

	td.identity.On("VerifyToken", mock.Anything, "tok").Return(&domain.User{ID: "u1"}, nil).Once()
	td.listings.On("ListByOwner", mock.Anything, "u1").Return([]*domain.Listing{}, nil).Once()
	td.bookmarks.On("DeleteByUser", mock.Anything, "u1").Return(int64(0), nil).Once()
	td.listings.On("DeleteByOwner", mock.Anything, "u1").Return(int64(0), nil).Once()
	td.storage.On("List", mock.Anything, "u1/", domain.ListOptions{Limit: 2}).
		Return([]domain.StoredObject{{Key: "u1/a"}, {Key: "u1/b"}}, nil).Once()
	td.storage.On("List", mock.Anything, "u1/", domain.ListOptions{Limit: 2, StartAfter: "u1/b"}).
		Return([]domain.StoredObject{{Key: "u1/c"}}, nil).Once()
	td.storage.On("Remove", mock.Anything, []string{"u1/a", "u1/b"}).Return(nil).Once()
	td.storage.On("Remove", mock.Anything, []string{"u1/c"}).Return(nil).Once()
	td.identity.On("DeleteUser", mock.Anything, "u1").Return(nil).Once()

	require.NoError(t, uc.DeleteAccount(context.Background(), "tok", DeleteConfirmationText))
	td.storage.AssertExpectations(t)
	td.bookmarks.AssertNotCalled(t, "DeleteByListings", mock.Anything, mock.Anything)
}

func TestAccount_DeleteAccount_IdentityFailure(t *testing.T) {
	td, deps := newTestDeps()
	uc := NewAccountUsecase(deps)

	td.identity.On("VerifyToken", mock.Anything, "tok").Return(&domain.User{ID: "u1"}, nil).Once()
	td.listings.On("ListByOwner", mock.Anything, "u1").Return([]*domain.Listing{}, nil).Once()
	td.bookmarks.On("DeleteByUser", mock.Anything, "u1").Return(int64(0), nil).Once()
	td.listings.On("DeleteByOwner", mock.Anything, "u1").Return(int64(0), nil).Once()
	td.storage.On("List", mock.Anything, "u1/", mock.Anything).Return([]domain.StoredObject{}, nil).Once()
	td.identity.On("DeleteUser", mock.Anything, "u1").Return(errors.New("user store unavailable")).Once()

	err := uc.DeleteAccount(context.Background(), "tok", DeleteConfirmationText)
	var idErr *domain.IdentityDeletionError
	require.ErrorAs(t, err, &idErr)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestAccount_DeleteAccount_ListingFailureAborts(t *testing.T) {
	td, deps := newTestDeps()
	uc := NewAccountUsecase(deps)

	td.identity.On("VerifyToken", mock.Anything, "tok").Return(&domain.User{ID: "u1"}, nil).Once()
	td.listings.On("ListByOwner", mock.Anything, "u1").Return([]*domain.Listing{}, nil).Once()
	td.bookmarks.On("DeleteByUser", mock.Anything, "u1").Return(int64(0), nil).Once()
	td.listings.On("DeleteByOwner", mock.Anything, "u1").Return(int64(0), errors.New("timeout")).Once()

	err := uc.DeleteAccount(context.Background(), "tok", DeleteConfirmationText)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	td.identity.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
}
