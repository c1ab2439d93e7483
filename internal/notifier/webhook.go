package notifier

import (
	"context"
	"fmt"
	"net/http"

	"github.com/good-yellow-bee/logpulse/internal/models"
)

// WebhookConfig holds generic webhook configuration.
type WebhookConfig struct {
	URL string
}

// Validate validates the webhook configuration. Plain HTTP is allowed
// for in-cluster receivers.
func (c *WebhookConfig) Validate() error {
	return checkWebhookURL(c.URL, false)
}

// WebhookNotifier posts the alert as JSON to an arbitrary endpoint.
type WebhookNotifier struct {
	config     WebhookConfig
	httpClient *http.Client
}

// webhookPayload wraps the alert in the same envelope the push channel uses.
type webhookPayload struct {
	Type string        `json:"type"`
	Data *models.Alert `json:"data"`
}

// NewWebhookNotifier creates a new webhook notifier.
func NewWebhookNotifier(config WebhookConfig) (*WebhookNotifier, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid webhook config: %w", err)
	}
	return &WebhookNotifier{
		config:     config,
		httpClient: newHTTPClient(),
	}, nil
}

// Name returns "webhook".
func (w *WebhookNotifier) Name() string {
	return "webhook"
}

// Send posts the alert.
func (w *WebhookNotifier) Send(ctx context.Context, alert *models.Alert) error {
	return postJSON(ctx, w.httpClient, w.config.URL, webhookPayload{Type: "alert", Data: alert}, "webhook")
}

// Close is a no-op for webhook notifier.
func (w *WebhookNotifier) Close() error {
	return nil
}
