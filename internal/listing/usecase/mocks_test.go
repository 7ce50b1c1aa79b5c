package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
)

type MockListingRepository struct{ mock.Mock }

func (m *MockListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	return m.Called(ctx, listing).Error(0)
}

func (m *MockListingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingRepository) Update(ctx context.Context, listing *domain.Listing) (*domain.Listing, error) {
	args := m.Called(ctx, listing)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingRepository) ToggleSold(ctx context.Context, id, ownerID string) (*domain.Listing, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingRepository) Delete(ctx context.Context, id, ownerID string) error {
	return m.Called(ctx, id, ownerID).Error(0)
}

func (m *MockListingRepository) ListUnsold(ctx context.Context) ([]*domain.Listing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Listing), args.Error(1)
}

func (m *MockListingRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Listing), args.Error(1)
}

func (m *MockListingRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockListingRepository) ImageURLs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockBookmarkRepository struct{ mock.Mock }

func (m *MockBookmarkRepository) Add(ctx context.Context, b *domain.Bookmark) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockBookmarkRepository) Remove(ctx context.Context, userID, listingID string) error {
	return m.Called(ctx, userID, listingID).Error(0)
}

func (m *MockBookmarkRepository) Exists(ctx context.Context, userID, listingID string) (bool, error) {
	args := m.Called(ctx, userID, listingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookmarkRepository) ListBookmarkedListings(ctx context.Context, userID string) ([]*domain.Listing, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Listing), args.Error(1)
}

func (m *MockBookmarkRepository) DeleteByListings(ctx context.Context, ids []string) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookmarkRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockStorage struct{ mock.Mock }

func (m *MockStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Called(ctx, key, data, contentType).Error(0)
}

func (m *MockStorage) PublicURL(key string) string {
	return "http://minio.local/listings/" + key
}

func (m *MockStorage) KeyFromURL(url string) (string, bool) {
	const base = "http://minio.local/listings/"
	if len(url) > len(base) && url[:len(base)] == base {
		return url[len(base):], true
	}
	return "", false
}

func (m *MockStorage) List(ctx context.Context, prefix string, opts domain.ListOptions) ([]domain.StoredObject, error) {
	args := m.Called(ctx, prefix, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StoredObject), args.Error(1)
}

func (m *MockStorage) Remove(ctx context.Context, keys []string) error {
	return m.Called(ctx, keys).Error(0)
}

type MockIdentityProvider struct{ mock.Mock }

func (m *MockIdentityProvider) SignUp(ctx context.Context, email, password string, profile domain.Profile) (*domain.Session, error) {
	args := m.Called(ctx, email, password, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockIdentityProvider) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockIdentityProvider) SignOut(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockIdentityProvider) VerifyToken(ctx context.Context, token string) (*domain.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockIdentityProvider) DeleteUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	return m.Called(ctx, subject, data).Error(0)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) SendListingCreatedEmail(ctx context.Context, to, title string) error {
	return m.Called(ctx, to, title).Error(0)
}

type MockListingCache struct{ mock.Mock }

func (m *MockListingCache) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingCache) SetListing(ctx context.Context, l *domain.Listing) error {
	return m.Called(ctx, l).Error(0)
}

func (m *MockListingCache) DeleteListing(ctx context.Context, ids ...string) error {
	return m.Called(ctx, ids).Error(0)
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type testDeps struct {
	listings  *MockListingRepository
	bookmarks *MockBookmarkRepository
	storage   *MockStorage
	identity  *MockIdentityProvider
	publisher *MockPublisher
	notifier  *MockNotifier
	cache     *MockListingCache
}

func newTestDeps() (*testDeps, Dependencies) {
	td := &testDeps{
		listings:  new(MockListingRepository),
		bookmarks: new(MockBookmarkRepository),
		storage:   new(MockStorage),
		identity:  new(MockIdentityProvider),
		publisher: new(MockPublisher),
		notifier:  new(MockNotifier),
		cache:     new(MockListingCache),
	}
	// Event publishing and cache invalidation are best effort; tests assert on them explicitly where relevant.
	td.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	td.cache.On("DeleteListing", mock.Anything, mock.Anything).Return(nil).Maybe()

	return td, Dependencies{
		Listings:  td.listings,
		Bookmarks: td.bookmarks,
		Storage:   td.storage,
		Identity:  td.identity,
		Cache:     td.cache,
		Publisher: td.publisher,
		Notifier:  td.notifier,
		Now:       func() time.Time { return fixedNow },
		NewID:     func() string { return "listing-1" },
	}
}

func (td *testDeps) assertNoProviderCalls(t mock.TestingT) {
	td.listings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	td.listings.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	td.listings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	td.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	td.listings.AssertNumberOfCalls(t, "Create", 0)
	td.storage.AssertNumberOfCalls(t, "Upload", 0)
}

func strPtr(s string) *string { return &s }
