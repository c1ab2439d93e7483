// Package alerts provides the HTTP handler for alert history.
package alerts

import (
	"net/http"

	"github.com/good-yellow-bee/logpulse/internal/api/respond"
	"github.com/good-yellow-bee/logpulse/internal/models"
)

// Lister returns alert history, oldest first.
type Lister interface {
	List() []*models.Alert
}

// Handler handles alert endpoints.
type Handler struct {
	history Lister
}

// NewHandler creates a new alerts handler.
func NewHandler(history Lister) *Handler {
	return &Handler{history: history}
}

// List handles GET /api/v1/alerts.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list := h.history.List()
	if list == nil {
		list = []*models.Alert{}
	}
	respond.OK(w, list)
}
