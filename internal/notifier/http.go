package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const deliveryTimeout = 30 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: deliveryTimeout}
}

// checkWebhookURL rejects URLs without a host. Chat services only accept
// HTTPS; generic receivers may be plain HTTP inside a cluster.
func checkWebhookURL(raw string, httpsOnly bool) error {
	if raw == "" {
		return errors.New("webhook URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}
	switch {
	case httpsOnly && u.Scheme != "https":
		return errors.New("webhook URL must use HTTPS")
	case u.Scheme != "http" && u.Scheme != "https":
		return errors.New("webhook URL must use http or https")
	case u.Host == "":
		return errors.New("webhook URL must include a host")
	}
	return nil
}

// postJSON posts payload to url and treats any 2xx response as success.
func postJSON(ctx context.Context, client *http.Client, url string, payload any, service string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", service, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", service, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver to %s: %w", service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s API error: status %d, body: %s", service, resp.StatusCode, snippet)
	}
	return nil
}
