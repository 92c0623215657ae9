package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chhoumann/quickadd-sub002/internal/index"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(idx *index.FileIndex, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(idx)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Search.
	r.Get("/search", h.Search)

	// Index records.
	r.Get("/documents/*", h.GetDocument)
	r.Post("/opened", h.Opened)
	r.Get("/status", h.Status)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
