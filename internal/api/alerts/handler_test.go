package alerts

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/good-yellow-bee/logpulse/internal/alerting"
	"github.com/good-yellow-bee/logpulse/internal/models"
)

func TestList(t *testing.T) {
	history := alerting.NewHistory(0)
	h := NewHandler(history)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest("GET", "/api/v1/alerts", nil))
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())

	first := models.NewAlert("High Error Rate", "More than 50 error logs in the last 10 minutes", models.SeverityError, time.Now())
	first.Rule = "high-error-burst"
	first.Value = 51
	history.Add(first)
	history.Add(models.NewAlert("Disk", "almost full", models.SeverityWarning, time.Now()))

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest("GET", "/api/v1/alerts", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct{ Data []models.Alert }
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, first.ID, body.Data[0].ID)
	assert.Equal(t, "high-error-burst", body.Data[0].Rule)
	assert.Equal(t, float64(51), body.Data[0].Value)
	assert.Empty(t, body.Data[1].Rule)
}
