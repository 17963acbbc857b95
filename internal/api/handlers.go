package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/docgraph/internal/apperr"
	"github.com/starford/docgraph/internal/catalog"
)

// Handler holds API route handlers.
type Handler struct {
	live *catalog.Live
}

// NewHandler creates a new Handler.
func NewHandler(live *catalog.Live) *Handler {
	return &Handler{live: live}
}

// StatusResponse describes the catalog currently being served.
type StatusResponse struct {
	Documents int       `json:"documents"`
	Decisions int       `json:"decisions"`
	ScannedAt time.Time `json:"scanned_at"`
}

// documentPath extracts the document path from the URL (everything after
// /documents/). Supports encoded slashes (e.g. 01-architecture%2Frisk.md).
func documentPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListDocuments handles GET /documents?type=.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs := h.live.Current().ListDocuments(r.URL.Query().Get("type"))
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"total":     len(docs),
	})
}

// GetDocument handles GET /documents/*.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	p := documentPath(r)
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	doc, err := h.live.Current().GetDocument(p)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get document failed", slog.String("path", p), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// ListDecisions handles GET /decisions?status=.
func (h *Handler) ListDecisions(w http.ResponseWriter, r *http.Request) {
	decs := h.live.Current().ListDecisions(r.URL.Query().Get("status"))
	writeJSON(w, http.StatusOK, map[string]any{
		"decisions": decs,
		"total":     len(decs),
	})
}

// ListComponents handles GET /components.
func (h *Handler) ListComponents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"components": h.live.Current().Components(),
	})
}

// ComponentDocuments handles GET /components/{name}/documents.
func (h *Handler) ComponentDocuments(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	docs, err := h.live.Current().ComponentDocuments(name)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("unknown component"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"component": name,
		"documents": docs,
	})
}

// Status handles GET /status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	c := h.live.Current()
	docs, decs := c.Len()
	writeJSON(w, http.StatusOK, StatusResponse{Documents: docs, Decisions: decs, ScannedAt: c.ScannedAt()})
}
