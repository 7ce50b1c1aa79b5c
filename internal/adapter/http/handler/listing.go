package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tfrhyde/vaquero-marketplace/internal/adapter/http/middleware"
	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/logger"
)

const (
	imageFormField  = "image"
	multipartMemory = 8 << 20
)

type ListingLifecycle interface {
	Create(ctx context.Context, user *domain.AuthenticatedUser, fields domain.ListingFields, image *domain.ImageFile) (*domain.Listing, error)
	Update(ctx context.Context, user *domain.AuthenticatedUser, listingID string, patch domain.ListingPatch, image *domain.ImageFile) (*domain.Listing, error)
	ToggleSold(ctx context.Context, user *domain.AuthenticatedUser, listingID string) (*domain.Listing, error)
	Delete(ctx context.Context, user *domain.AuthenticatedUser, listingID string, confirm domain.Confirmer) (bool, error)
}

type ListingFeed interface {
	ListUnsold(ctx context.Context) ([]*domain.Listing, error)
	ListOwnedByUser(ctx context.Context, ownerID string) ([]*domain.Listing, error)
	ListBookmarkedByUser(ctx context.Context, userID string) ([]*domain.Listing, error)
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
}

type ListingHandler struct {
	lifecycle     ListingLifecycle
	feed          ListingFeed
	maxImageBytes int64
	logger        *logger.Logger
}

func NewListingHandler(lifecycle ListingLifecycle, feed ListingFeed, maxImageBytes int64, log *logger.Logger) *ListingHandler {
	return &ListingHandler{
		lifecycle:     lifecycle,
		feed:          feed,
		maxImageBytes: maxImageBytes,
		logger:        log.Named("ListingHandler"),
	}
}

func (h *ListingHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	items, err := h.feed.ListUnsold(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toListingResponses(items))
}

func (h *ListingHandler) HandleMyListings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrUnauthorized)
		return
	}
	items, err := h.feed.ListOwnedByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toListingResponses(items))
}

func (h *ListingHandler) HandleMyBookmarks(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrUnauthorized)
		return
	}
	items, err := h.feed.ListBookmarkedByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toListingResponses(items))
}

func (h *ListingHandler) HandleGetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.feed.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toListingResponse(listing))
}

func (h *ListingHandler) HandleCreateListing(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrUnauthorized)
		return
	}
	if err := parseForm(r); err != nil {
		writeError(w, h.logger, err)
		return
	}
	image, err := h.readImage(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	fields := domain.ListingFields{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		Price:       r.PostFormValue("price"),
		Category:    r.PostFormValue("category"),
		Location:    r.PostFormValue("location"),
	}
	listing, err := h.lifecycle.Create(r.Context(), user, fields, image)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, toListingResponse(listing))
}

// HandleUpdateListing applies only the form fields present in the request.
func (h *ListingHandler) HandleUpdateListing(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrUnauthorized)
		return
	}
	if err := parseForm(r); err != nil {
		writeError(w, h.logger, err)
		return
	}
	image, err := h.readImage(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	patch := domain.ListingPatch{
		Title:       formField(r, "title"),
		Description: formField(r, "description"),
		Price:       formField(r, "price"),
		Category:    formField(r, "category"),
		Location:    formField(r, "location"),
	}
	listing, err := h.lifecycle.Update(r.Context(), user, chi.URLParam(r, "id"), patch, image)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toListingResponse(listing))
}

func (h *ListingHandler) HandleToggleSold(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrUnauthorized)
		return
	}
	listing, err := h.lifecycle.ToggleSold(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toListingResponse(listing))
}

// HandleDeleteListing deletes only with ?confirm=true. Otherwise nothing happens.
func (h *ListingHandler) HandleDeleteListing(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrUnauthorized)
		return
	}
	confirm := domain.Confirmation(r.URL.Query().Get("confirm") == "true")
	deleted, err := h.lifecycle.Delete(r.Context(), user, chi.URLParam(r, "id"), confirm)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !deleted {
		writeJSON(w, h.logger, http.StatusOK, map[string]bool{"deleted": false})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return domain.NewValidationError("Invalid form data.")
	}
	return nil
}

func formField(r *http.Request, name string) *string {
	values, ok := r.PostForm[name]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

// readImage returns the optional image attachment. It reads at most one byte over the
// limit so that oversized files are rejected by validation.
func (h *ListingHandler) readImage(r *http.Request) (*domain.ImageFile, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile(imageFormField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewValidationError("Invalid image upload.")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxImageBytes+1))
	if err != nil {
		h.logger.Warn("Failed to read uploaded image", zap.String("filename", header.Filename), zap.Error(err))
		return nil, domain.NewValidationError("Invalid image upload.")
	}
	if len(data) == 0 {
		return nil, nil
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return &domain.ImageFile{
		Name:        filepath.Base(header.Filename),
		ContentType: contentType,
		Data:        data,
	}, nil
}
