// Package bookmarks provides HTTP handlers for log bookmarks.
package bookmarks

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/logpulse/internal/api/respond"
	"github.com/good-yellow-bee/logpulse/internal/models"
	"github.com/good-yellow-bee/logpulse/internal/storage"
)

// Handler handles bookmark endpoints.
type Handler struct {
	logs      storage.LogStore
	bookmarks storage.BookmarkStore
}

// NewHandler creates a new bookmarks handler.
func NewHandler(logs storage.LogStore, bookmarks storage.BookmarkStore) *Handler {
	return &Handler{logs: logs, bookmarks: bookmarks}
}

// CreateRequest is the body of POST /api/v1/bookmarks.
type CreateRequest struct {
	LogID string `json:"logId"`
}

// Create handles POST /api/v1/bookmarks.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSONError(w, respond.NewBadRequest("invalid JSON body"))
		return
	}
	req.LogID = strings.TrimSpace(req.LogID)
	if req.LogID == "" {
		respond.JSONError(w, respond.NewValidationError("logId is required"))
		return
	}

	rec, err := h.logs.Get(req.LogID)
	if err != nil {
		respond.JSONError(w, respond.FromError(err, "Log not found"))
		return
	}

	respond.Created(w, h.bookmarks.Create(rec))
}

// List handles GET /api/v1/bookmarks.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list := h.bookmarks.List()
	if list == nil {
		list = []*models.Bookmark{}
	}
	respond.OK(w, list)
}

// Delete handles DELETE /api/v1/bookmarks/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.bookmarks.Delete(chi.URLParam(r, "id")); err != nil {
		respond.JSONError(w, respond.FromError(err, "Bookmark not found"))
		return
	}
	respond.NoContent(w)
}
