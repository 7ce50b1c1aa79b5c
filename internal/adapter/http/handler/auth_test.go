package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/logger"
)

type MockAccounts struct {
	mock.Mock
}

func (m *MockAccounts) SignUp(ctx context.Context, email, password string, profile domain.Profile) (*domain.Session, error) {
	args := m.Called(ctx, email, password, profile)
	s, _ := args.Get(0).(*domain.Session)
	return s, args.Error(1)
}

func (m *MockAccounts) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	args := m.Called(ctx, email, password)
	s, _ := args.Get(0).(*domain.Session)
	return s, args.Error(1)
}

func (m *MockAccounts) SignOut(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAccounts) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	args := m.Called(ctx, token)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *MockAccounts) DeleteAccount(ctx context.Context, token, confirmation string) error {
	return m.Called(ctx, token, confirmation).Error(0)
}

func TestHandleDeleteAccount_ErrorBodies(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "identity removal failed",
			err:        &domain.IdentityDeletionError{Err: errors.New("auth backend: 503 upstream reset")},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Failed to delete account."}`,
		},
		{
			name:       "store failure",
			err:        fmt.Errorf("%w: delete listings: socket closed", domain.ErrPersistence),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Internal server error."}`,
		},
		{
			name:       "invalid session",
			err:        &domain.AuthError{Reason: "Invalid session"},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"Invalid session"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := new(MockAccounts)
			accounts.On("DeleteAccount", mock.Anything, "tok", "DELETE").Return(tt.err).Once()
			h := NewAuthHandler(accounts, false, logger.NewNop())

			req := httptest.NewRequest(http.MethodPost, "/api/delete-account", strings.NewReader(`{"confirmation":"DELETE"}`))
			req.Header.Set("Authorization", "Bearer tok")
			rec := httptest.NewRecorder()
			h.HandleDeleteAccount(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			accounts.AssertExpectations(t)
		})
	}
}
