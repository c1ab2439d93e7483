// Package dashboard provides the HTTP handler for the dashboard summary.
package dashboard

import (
	"net/http"
	"time"

	"github.com/good-yellow-bee/logpulse/internal/api/respond"
	summary "github.com/good-yellow-bee/logpulse/internal/dashboard"
)

// Handler handles the dashboard endpoint.
type Handler struct {
	records summary.Scanner
	now     func() time.Time
}

// NewHandler creates a new dashboard handler.
func NewHandler(records summary.Scanner) *Handler {
	return &Handler{records: records, now: time.Now}
}

// Summary handles GET /api/v1/dashboard.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, summary.Summarize(h.records, h.now()))
}
