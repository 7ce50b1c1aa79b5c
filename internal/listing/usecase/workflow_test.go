package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
	"github.com/tfrhyde/vaquero-marketplace/internal/testutil"
)

type workflow struct {
	store     *testutil.Store
	storage   *testutil.Storage
	identity  *testutil.Identity
	lifecycle *LifecycleUsecase
	bookmarks *BookmarkUsecase
	feed      *FeedUsecase
	accounts  *AccountUsecase
	sweeper   *ImageReconciler
	clock     *time.Time
}

func newWorkflow() *workflow {
	store := testutil.NewStore()
	storage := testutil.NewStorage()
	identity := testutil.NewIdentity()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	seq := 0
	w := &workflow{store: store, storage: storage, identity: identity, clock: &now}
	deps := Dependencies{
		Listings:  store.Listings(),
		Bookmarks: store.Bookmarks(),
		Storage:   storage,
		Identity:  identity,
		Now: func() time.Time {
			*w.clock = w.clock.Add(time.Second)
			return *w.clock
		},
		NewID: func() string {
			seq++
			return fmt.Sprintf("listing-%d", seq)
		},
	}
	w.lifecycle = NewLifecycleUsecase(deps, 1<<20)
	w.bookmarks = NewBookmarkUsecase(deps)
	w.feed = NewFeedUsecase(deps)
	w.accounts = NewAccountUsecase(deps)
	w.sweeper = NewImageReconciler(deps, time.Hour)
	return w
}

func (w *workflow) create(t *testing.T, user *domain.AuthenticatedUser, title string) *domain.Listing {
	t.Helper()
	l, err := w.lifecycle.Create(context.Background(), user, domain.ListingFields{Title: title, Price: "10"}, nil)
	require.NoError(t, err)
	return l
}

func TestWorkflow_ToggleSoldIsInvolution(t *testing.T) {
	w := newWorkflow()
	ctx := context.Background()
	l := w.create(t, owner, "Bike")

	once, err := w.lifecycle.ToggleSold(ctx, owner, l.ID)
	require.NoError(t, err)
	assert.True(t, once.Sold)

	twice, err := w.lifecycle.ToggleSold(ctx, owner, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.Sold, twice.Sold)
	assert.Equal(t, l.CreatedAt, twice.CreatedAt)
}

func TestWorkflow_BookmarkRoundTrip(t *testing.T) {
	w := newWorkflow()
	ctx := context.Background()
	buyer := &domain.AuthenticatedUser{ID: "buyer", Email: "b@utrgv.edu"}
	l := w.create(t, owner, "Calculator")

	require.NoError(t, w.bookmarks.Add(ctx, buyer, l.ID))
	ok, err := w.bookmarks.IsBookmarked(ctx, buyer, l.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	err = w.bookmarks.Add(ctx, buyer, l.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, w.bookmarks.Remove(ctx, buyer, l.ID))
	ok, err = w.bookmarks.IsBookmarked(ctx, buyer, l.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, w.bookmarks.Remove(ctx, buyer, l.ID), "remove is idempotent")
	require.NoError(t, w.bookmarks.Add(ctx, buyer, l.ID), "add after remove is allowed")
}

func TestWorkflow_ListUnsoldExcludesSold(t *testing.T) {
	w := newWorkflow()
	ctx := context.Background()
	a := w.create(t, owner, "A")
	b := w.create(t, owner, "B")
	c := w.create(t, owner, "C")
	_, err := w.lifecycle.ToggleSold(ctx, owner, b.ID)
	require.NoError(t, err)

	unsold, err := w.feed.ListUnsold(ctx)
	require.NoError(t, err)
	require.Len(t, unsold, 2)
	assert.Equal(t, c.ID, unsold[0].ID, "newest first")
	assert.Equal(t, a.ID, unsold[1].ID)
	for _, l := range unsold {
		assert.False(t, l.Sold)
	}

	owned, err := w.feed.ListOwnedByUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 3)
}

func TestWorkflow_BookmarkedDropsDangling(t *testing.T) {
	w := newWorkflow()
	ctx := context.Background()
	buyer := &domain.AuthenticatedUser{ID: "buyer"}
	keep := w.create(t, owner, "Keep")
	gone := w.create(t, owner, "Gone")
	require.NoError(t, w.bookmarks.Add(ctx, buyer, keep.ID))
	require.NoError(t, w.bookmarks.Add(ctx, buyer, gone.ID))

	w.store.ForceDeleteListing(gone.ID)

	got, err := w.feed.ListBookmarkedByUser(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, keep.ID, got[0].ID)
}

func TestWorkflow_DeleteScenario(t *testing.T) {
	w := newWorkflow()
	ctx := context.Background()
	buyer := &domain.AuthenticatedUser{ID: "buyer"}
	l, err := w.lifecycle.Create(ctx, owner, domain.ListingFields{Title: "Desk", Price: "40"},
		&domain.ImageFile{Name: "desk.jpg", ContentType: "image/jpeg", Data: []byte("jpg")})
	require.NoError(t, err)
	require.NoError(t, w.bookmarks.Add(ctx, buyer, l.ID))

	deleted, err := w.lifecycle.Delete(ctx, owner, l.ID, domain.Confirmation(false))
	require.NoError(t, err)
	assert.False(t, deleted)
	owned, _ := w.feed.ListOwnedByUser(ctx, owner.ID)
	assert.Len(t, owned, 1)

	deleted, err = w.lifecycle.Delete(ctx, owner, l.ID, domain.Confirmation(true))
	require.NoError(t, err)
	assert.True(t, deleted)

	owned, _ = w.feed.ListOwnedByUser(ctx, owner.ID)
	assert.Empty(t, owned)
	marked, _ := w.feed.ListBookmarkedByUser(ctx, buyer.ID)
	assert.Empty(t, marked)
	ok, _ := w.bookmarks.IsBookmarked(ctx, buyer, l.ID)
	assert.False(t, ok)
	assert.Empty(t, w.storage.Keys(), "image object removed with the listing")
}

func TestWorkflow_BookmarkToggle(t *testing.T) {
	w := newWorkflow()
	ctx := context.Background()
	buyer := &domain.AuthenticatedUser{ID: "buyer"}
	l := w.create(t, owner, "Lamp")

	on, err := w.bookmarks.Toggle(ctx, buyer, l.ID)
	require.NoError(t, err)
	assert.True(t, on)

	off, err := w.bookmarks.Toggle(ctx, buyer, l.ID)
	require.NoError(t, err)
	assert.False(t, off)
}

func TestWorkflow_DeleteAccountCascade(t *testing.T) {
	w := newWorkflow()
	ctx := context.Background()
	token := w.identity.AddUser(&domain.User{ID: owner.ID, Email: owner.Email})
	other := &domain.AuthenticatedUser{ID: "other"}

	mine := w.create(t, owner, "Mine")
	theirs := w.create(t, other, "Theirs")
	require.NoError(t, w.bookmarks.Add(ctx, other, mine.ID))
	require.NoError(t, w.bookmarks.Add(ctx, owner, theirs.ID))
	for i := 0; i < 250; i++ {
		w.storage.Put(fmt.Sprintf("%s/%04d_x.png", owner.ID, i), time.Now())
	}
	w.storage.Put("other/1_keep.png", time.Now())

	require.NoError(t, w.accounts.DeleteAccount(ctx, token, DeleteConfirmationText))

	owned, _ := w.feed.ListOwnedByUser(ctx, owner.ID)
	assert.Empty(t, owned)
	marked, _ := w.feed.ListBookmarkedByUser(ctx, other.ID)
	assert.Empty(t, marked)
	assert.Equal(t, []string{"other/1_keep.png"}, w.storage.Keys(), "all pages of the user's folder are purged")

	_, err := w.identity.VerifyToken(ctx, token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	stillThere, err := w.feed.ListOwnedByUser(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, stillThere, 1)
}

func TestWorkflow_SweepRemovesOnlyOldOrphans(t *testing.T) {
	w := newWorkflow()
	ctx := context.Background()
	l, err := w.lifecycle.Create(ctx, owner, domain.ListingFields{Title: "Desk", Price: "40"},
		&domain.ImageFile{Name: "desk.jpg", ContentType: "image/jpeg", Data: []byte("jpg")})
	require.NoError(t, err)
	referencedKey, ok := w.storage.KeyFromURL(l.ImageURL)
	require.True(t, ok)
	w.storage.Put(referencedKey, w.clock.Add(-48*time.Hour))

	w.storage.Put("user-1/1_orphan.png", w.clock.Add(-2*time.Hour))
	w.storage.Put("user-1/2_fresh.png", w.clock.Add(-time.Minute))

	removed, err := w.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.ElementsMatch(t, []string{referencedKey, "user-1/2_fresh.png"}, w.storage.Keys())
}
