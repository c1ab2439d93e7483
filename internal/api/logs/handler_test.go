package logs

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/good-yellow-bee/logpulse/internal/ingest"
	"github.com/good-yellow-bee/logpulse/internal/models"
	"github.com/good-yellow-bee/logpulse/internal/storage"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func setup(t *testing.T) (*storage.MemoryLogStore, http.Handler) {
	t.Helper()
	store := storage.NewMemoryLogStore(0)
	pipeline := ingest.NewPipeline(store, nil, nil, ingest.Options{}, nil)
	h := NewHandler(store, pipeline, 1024, nil)

	r := chi.NewRouter()
	r.Post("/api/v1/logs", h.Ingest)
	r.Get("/api/v1/logs", h.Query)
	r.Get("/api/v1/logs/{id}", h.Get)
	r.Get("/api/v1/export", h.Export)
	return store, r
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") && rec.Header().Get("Content-Disposition") == "" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func seed(store *storage.MemoryLogStore, base time.Time) {
	store.Append(&models.LogRecord{ID: "1", Timestamp: base, Level: models.LevelInfo, Source: "api", Message: "user login"})
	store.Append(&models.LogRecord{ID: "2", Timestamp: base.Add(time.Hour), Level: models.LevelError, Source: "db", Message: "Connection refused"})
	store.Append(&models.LogRecord{ID: "3", Timestamp: base.Add(2 * time.Hour), Level: models.LevelWarning, Source: "api", Message: "slow login"})
}

func TestIngest_Single(t *testing.T) {
	store, h := setup(t)

	rec, env := do(t, h, "POST", "/api/v1/logs", `{"level":"warn","source":"cache","message":"miss ratio high"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got models.LogRecord
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, models.LevelWarning, got.Level)
	assert.False(t, got.Timestamp.IsZero())
	assert.Equal(t, 1, store.Len())
}

func TestIngest_Batch(t *testing.T) {
	store, h := setup(t)

	rec, env := do(t, h, "POST", "/api/v1/logs", `[{"level":"info","message":"a"},{"level":"error","message":"b"}]`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got []models.LogRecord
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Len(t, got, 2)
	assert.Equal(t, 2, store.Len())
}

func TestIngest_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"empty body", "", http.StatusBadRequest, "BAD_REQUEST"},
		{"not json", "level=info", http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown level", `{"level":"fatal","message":"x"}`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"bad record in batch", `[{"level":"info"},{"level":"nope"}]`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"too large", `{"message":"` + strings.Repeat("x", 2048) + `"}`, http.StatusRequestEntityTooLarge, "BAD_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, h := setup(t)
			rec, env := do(t, h, "POST", "/api/v1/logs", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
			assert.Equal(t, 0, store.Len())
		})
	}
}

func TestQuery_NewestFirstAndFiltered(t *testing.T) {
	store, h := setup(t)
	base := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	seed(store, base)

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{"no filter", "/api/v1/logs", []string{"3", "2", "1"}},
		{"level", "/api/v1/logs?level=error", []string{"2"}},
		{"keyword case-insensitive", "/api/v1/logs?keyword=LOGIN", []string{"3", "1"}},
		{"start date", "/api/v1/logs?startDate=" + base.Add(time.Hour).Format(time.RFC3339), []string{"3", "2"}},
		{"invalid values ignored", "/api/v1/logs?startDate=yesterday&level=loud", []string{"3", "2", "1"}},
		{"nothing matches", "/api/v1/logs?keyword=kernel", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, h, "GET", tt.target, "")
			require.Equal(t, http.StatusOK, rec.Code)

			var got []models.LogRecord
			require.NoError(t, json.Unmarshal(env.Data, &got))
			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestGet(t *testing.T) {
	store, h := setup(t)
	seed(store, time.Now())

	rec, env := do(t, h, "GET", "/api/v1/logs/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.LogRecord
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "Connection refused", got.Message)

	rec, env = do(t, h, "GET", "/api/v1/logs/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestExport_CSV(t *testing.T) {
	store, h := setup(t)
	seed(store, time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC))

	rec, _ := do(t, h, "GET", "/api/v1/export?format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="logs.csv"`, rec.Header().Get("Content-Disposition"))

	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"id", "timestamp", "level", "source", "message"}, rows[0])
	assert.Equal(t, []string{"3", "2026-02-10T10:00:00Z", "warning", "api", "slow login"}, rows[1])
}

func TestExport_JSONAndUnknownFormat(t *testing.T) {
	store, h := setup(t)
	seed(store, time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC))

	for _, target := range []string{"/api/v1/export?format=json", "/api/v1/export?format=xml", "/api/v1/export"} {
		rec, _ := do(t, h, "GET", target, "")
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, `attachment; filename="logs.json"`, rec.Header().Get("Content-Disposition"), target)
		assert.Contains(t, rec.Body.String(), "\n  {", "pretty printed")

		var got []models.LogRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Len(t, got, 3)
	}
}

func TestExport_Filtered(t *testing.T) {
	store, h := setup(t)
	seed(store, time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC))

	rec, _ := do(t, h, "GET", "/api/v1/export?format=json&level=error", "")
	var got []models.LogRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}
