package alerting

import (
	"sync"

	"github.com/good-yellow-bee/logpulse/internal/models"
)

// DefaultMaxAlerts is the default history cap.
const DefaultMaxAlerts = 1000

// History is the append-only in-memory alert log. When a cap is set the
// oldest alerts are dropped first.
type History struct {
	mu     sync.RWMutex
	alerts []*models.Alert
	max    int
}

// NewHistory creates a history holding at most max alerts (0 = unbounded).
func NewHistory(max int) *History {
	return &History{max: max}
}

// Add appends an alert.
func (h *History) Add(a *models.Alert) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.alerts = append(h.alerts, a)
	if h.max > 0 && len(h.alerts) > h.max {
		over := len(h.alerts) - h.max
		copy(h.alerts, h.alerts[over:])
		for i := len(h.alerts) - over; i < len(h.alerts); i++ {
			h.alerts[i] = nil
		}
		h.alerts = h.alerts[:h.max]
	}
}

// List returns a copy of all alerts, oldest first.
func (h *History) List() []*models.Alert {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*models.Alert, len(h.alerts))
	copy(out, h.alerts)
	return out
}

// Len returns the number of alerts held.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.alerts)
}
