package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tfrhyde/vaquero-marketplace/internal/adapter/http/handler"
	"github.com/tfrhyde/vaquero-marketplace/internal/adapter/http/middleware"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/logger"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/metrics"
)

type Dependencies struct {
	Auth      *handler.AuthHandler
	Listings  *handler.ListingHandler
	Bookmarks *handler.BookmarkHandler
	Guard     middleware.SessionVerifier
	EntryPath string
	Metrics   *metrics.MetricsManager
	Logger    *logger.Logger
}

// NewRouter builds the HTTP API. The returned handler is traced with otelhttp.
func NewRouter(deps Dependencies, serviceName string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Metrics(deps.Metrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	SetupAuthRoutes(r, deps.Auth)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(deps.Guard, deps.EntryPath, deps.Logger))

		r.Get("/api/session", deps.Auth.HandleSession)
		SetupListingRoutes(r, deps.Listings, deps.Bookmarks)
	})

	return otelhttp.NewHandler(r, serviceName,
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return req.Method + " " + req.URL.Path
		}))
}

// SetupAuthRoutes registers the routes that run without RequireSession.
func SetupAuthRoutes(r chi.Router, h *handler.AuthHandler) {
	r.Post("/api/auth/signup", h.HandleSignUp)
	r.Post("/api/auth/login", h.HandleLogin)
	r.Post("/api/auth/logout", h.HandleLogout)
	r.Post("/api/delete-account", h.HandleDeleteAccount)
}

func SetupListingRoutes(r chi.Router, listings *handler.ListingHandler, bookmarks *handler.BookmarkHandler) {
	r.Route("/api/listings", func(r chi.Router) {
		r.Get("/", listings.HandleFeed)
		r.Post("/", listings.HandleCreateListing)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", listings.HandleGetListing)
			r.Patch("/", listings.HandleUpdateListing)
			r.Delete("/", listings.HandleDeleteListing)
			r.Post("/toggle-sold", listings.HandleToggleSold)

			r.Get("/bookmark", bookmarks.HandleGetBookmark)
			r.Put("/bookmark", bookmarks.HandleAddBookmark)
			r.Delete("/bookmark", bookmarks.HandleRemoveBookmark)
			r.Post("/bookmark/toggle", bookmarks.HandleToggleBookmark)
		})
	})

	r.Get("/api/me/listings", listings.HandleMyListings)
	r.Get("/api/me/bookmarks", listings.HandleMyBookmarks)
}
