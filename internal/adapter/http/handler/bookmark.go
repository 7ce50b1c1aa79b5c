package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tfrhyde/vaquero-marketplace/internal/adapter/http/middleware"
	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/logger"
)

type Bookmarks interface {
	IsBookmarked(ctx context.Context, user *domain.AuthenticatedUser, listingID string) (bool, error)
	Add(ctx context.Context, user *domain.AuthenticatedUser, listingID string) error
	Remove(ctx context.Context, user *domain.AuthenticatedUser, listingID string) error
	Toggle(ctx context.Context, user *domain.AuthenticatedUser, listingID string) (bool, error)
}

type BookmarkHandler struct {
	bookmarks Bookmarks
	logger    *logger.Logger
}

func NewBookmarkHandler(bookmarks Bookmarks, log *logger.Logger) *BookmarkHandler {
	return &BookmarkHandler{bookmarks: bookmarks, logger: log.Named("BookmarkHandler")}
}

type bookmarkStatus struct {
	Bookmarked bool `json:"bookmarked"`
}

func (h *BookmarkHandler) HandleGetBookmark(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrUnauthorized)
		return
	}
	bookmarked, err := h.bookmarks.IsBookmarked(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, bookmarkStatus{Bookmarked: bookmarked})
}

func (h *BookmarkHandler) HandleAddBookmark(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrUnauthorized)
		return
	}
	if err := h.bookmarks.Add(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BookmarkHandler) HandleRemoveBookmark(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrUnauthorized)
		return
	}
	if err := h.bookmarks.Remove(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BookmarkHandler) HandleToggleBookmark(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrUnauthorized)
		return
	}
	bookmarked, err := h.bookmarks.Toggle(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, bookmarkStatus{Bookmarked: bookmarked})
}
