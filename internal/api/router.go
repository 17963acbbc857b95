package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/docgraph/internal/catalog"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(live *catalog.Live, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(live)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/documents", h.ListDocuments)
	r.Get("/documents/*", h.GetDocument)
	r.Get("/decisions", h.ListDecisions)
	r.Get("/components", h.ListComponents)
	r.Get("/components/{name}/documents", h.ComponentDocuments)
	r.Get("/status", h.Status)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
