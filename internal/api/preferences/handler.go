// Package preferences provides HTTP handlers for per-user display settings.
package preferences

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/good-yellow-bee/logpulse/internal/api/respond"
	"github.com/good-yellow-bee/logpulse/internal/models"
	"github.com/good-yellow-bee/logpulse/internal/storage"
)

const maxUserIDLength = 128

// Handler handles preference endpoints.
type Handler struct {
	store  storage.PreferenceStore
	logger logrus.FieldLogger
}

// NewHandler creates a new preferences handler.
func NewHandler(store storage.PreferenceStore, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{store: store, logger: logger.WithField("component", "api.preferences")}
}

// SetRequest is the body of POST/PUT /api/v1/preferences/{userId}.
type SetRequest struct {
	Preferences *models.Preferences `json:"preferences"`
}

func userID(r *http.Request) (string, *respond.Error) {
	id := strings.TrimSpace(chi.URLParam(r, "userId"))
	if id == "" || len(id) > maxUserIDLength {
		return "", respond.NewValidationError("invalid user id")
	}
	return id, nil
}

// Get handles GET /api/v1/preferences/{userId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, apiErr := userID(r)
	if apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}

	prefs, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).WithField("user", id).Error("failed to load preferences")
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}
	respond.OK(w, prefs)
}

// Set handles POST and PUT /api/v1/preferences/{userId}. Saved preferences
// are replaced wholesale.
func (h *Handler) Set(w http.ResponseWriter, r *http.Request) {
	id, apiErr := userID(r)
	if apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}

	var req SetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSONError(w, respond.NewBadRequest("invalid JSON body"))
		return
	}
	if req.Preferences == nil {
		respond.JSONError(w, respond.NewValidationError("preferences is required"))
		return
	}
	req.Preferences.Normalize()

	if err := h.store.Set(r.Context(), id, req.Preferences); err != nil {
		h.logger.WithError(err).WithField("user", id).Error("failed to save preferences")
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}
	respond.OK(w, respond.MessageResponse{Message: "Preferences saved successfully"})
}
