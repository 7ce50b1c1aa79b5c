package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
)

func TestImageReconciler_Paginates(t *testing.T) {
	td, deps := newTestDeps()
	r := NewImageReconciler(deps, time.Hour)
	r.pageSize = 2
	old := fixedNow.Add(-2 * time.Hour)

	td.listings.On("ImageURLs", mock.Anything).Return([]string{
		"http://minio.local/listings/u1/keep.png",
		"https://elsewhere.example/x.png",
	}, nil).Once()
	td.storage.On("List", mock.Anything, "", domain.ListOptions{Limit: 2}).
		Return([]domain.StoredObject{{Key: "u1/keep.png", LastModified: old}, {Key: "u1/orphan.png", LastModified: old}}, nil).Once()
	td.storage.On("List", mock.Anything, "", domain.ListOptions{Limit: 2, StartAfter: "u1/orphan.png"}).
		Return([]domain.StoredObject{{Key: "u2/new.png", LastModified: fixedNow}}, nil).Once()
	td.storage.On("Remove", mock.Anything, []string{"u1/orphan.png"}).Return(nil).Once()

	removed, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	td.storage.AssertExpectations(t)
}

func TestImageReconciler_ListFailure(t *testing.T) {
	td, deps := newTestDeps()
	r := NewImageReconciler(deps, time.Hour)
	td.listings.On("ImageURLs", mock.Anything).Return(nil, errors.New("mongo down")).Once()

	_, err := r.Sweep(context.Background())
	assert.ErrorIs(t, err, domain.ErrPersistence)
	td.storage.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}
