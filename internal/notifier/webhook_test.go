package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhookConfigValidation(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"", true},
		{"ftp://example.com/hook", true},
		{"http://", true},
		{"http://alerts.internal:8080/hook", false},
		{"https://example.com/hook", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			c := WebhookConfig{URL: tt.url}
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWebhookNotifierSend(t *testing.T) {
	var got struct {
		Type string `json:"type"`
		Data struct {
			ID   string `json:"id"`
			Rule string `json:"rule"`
		} `json:"data"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	n, err := NewWebhookNotifier(WebhookConfig{URL: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	if err := n.Send(context.Background(), testAlert()); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got.Type != "alert" || got.Data.ID != "a-1" || got.Data.Rule != "high-error-burst" {
		t.Errorf("unexpected payload: %+v", got)
	}
}
