package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tfrhyde/vaquero-marketplace/internal/adapter/http/middleware"
	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/logger"
)

type Accounts interface {
	SignUp(ctx context.Context, email, password string, profile domain.Profile) (*domain.Session, error)
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	SignOut(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
	DeleteAccount(ctx context.Context, token, confirmation string) error
}

type AuthHandler struct {
	accounts     Accounts
	secureCookie bool
	logger       *logger.Logger
}

func NewAuthHandler(accounts Accounts, secureCookie bool, log *logger.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, secureCookie: secureCookie, logger: log.Named("AuthHandler")}
}

type signUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type deleteAccountRequest struct {
	Confirmation string `json:"confirmation"`
}

func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	session, err := h.accounts.SignUp(r.Context(), req.Email, req.Password, domain.Profile{FirstName: req.FirstName, LastName: req.LastName})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.setSessionCookie(w, session)
	writeJSON(w, h.logger, http.StatusCreated, toSessionResponse(session))
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	session, err := h.accounts.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.setSessionCookie(w, session)
	writeJSON(w, h.logger, http.StatusOK, toSessionResponse(session))
}

func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.SignOut(r.Context(), middleware.TokenFromRequest(r)); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleSession returns the profile behind the session accepted by RequireSession.
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.CurrentUser(r.Context(), middleware.TokenFromContext(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toUserResponse(user))
}

// HandleDeleteAccount checks the token itself instead of going through RequireSession,
// so it answers 401 with "Unauthorized" or "Invalid session" and 400 for identity failures.
func (h *AuthHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromRequest(r)
	if token == "" {
		writeJSON(w, h.logger, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
		return
	}

	var req deleteAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Debug("Delete account body not decoded", zap.Error(err))
	}

	err := h.accounts.DeleteAccount(r.Context(), token, req.Confirmation)
	if err != nil {
		var identityErr *domain.IdentityDeletionError
		if errors.As(err, &identityErr) {
			h.logger.Error("Identity deletion failed", zap.Error(err))
			writeJSON(w, h.logger, http.StatusBadRequest, errorResponse{Error: msgIdentityDeletion})
			return
		}
		writeError(w, h.logger, err)
		return
	}
	h.clearSessionCookie(w)
	writeJSON(w, h.logger, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, s *domain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    s.AccessToken,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
