package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

type listingResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"user_id"`
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

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type sessionResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        userResponse `json:"user"`
}

func toListingResponse(l *domain.Listing) listingResponse {
	return listingResponse{
		ID:          l.ID,
		OwnerID:     l.OwnerID,
		DisplayName: l.DisplayName,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Category:    l.Category,
		Location:    l.Location,
		ImageURL:    l.ImageURL,
		Sold:        l.Sold,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func toListingResponses(items []*domain.Listing) []listingResponse {
	out := make([]listingResponse, 0, len(items))
	for _, l := range items {
		out = append(out, toListingResponse(l))
	}
	return out
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

func toSessionResponse(s *domain.Session) sessionResponse {
	return sessionResponse{AccessToken: s.AccessToken, ExpiresAt: s.ExpiresAt, User: toUserResponse(s.User)}
}

func writeJSON(w http.ResponseWriter, log *logger.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", zap.Error(err))
	}
}

// Driver and storage error text stays in the log.
const (
	msgConflict = "Already exists."
	msgInternal = "Internal server error."

	msgIdentityDeletion = "Failed to delete account."
)

// writeError maps a usecase error to its HTTP status and a JSON error body.
func writeError(w http.ResponseWriter, log *logger.Logger, err error) {
	status, msg := statusFor(err)
	switch {
	case status >= http.StatusInternalServerError:
		log.Error("Request failed", zap.Error(err))
	case status == http.StatusConflict:
		log.Debug("Request conflicted", zap.Error(err))
	}
	writeJSON(w, log, status, errorResponse{Error: msg})
}

func statusFor(err error) (int, string) {
	var validationErr *domain.ValidationError
	var authErr *domain.AuthError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Message
	case errors.As(err, &authErr):
		return http.StatusUnauthorized, authErr.Reason
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "You do not own this listing."
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Listing not found."
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, msgConflict
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return domain.NewValidationError("Invalid request body.")
	}
	return nil
}
