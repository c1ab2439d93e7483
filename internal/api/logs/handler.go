// Package logs provides HTTP handlers for log ingest, query and export.
package logs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/good-yellow-bee/logpulse/internal/api/respond"
	"github.com/good-yellow-bee/logpulse/internal/export"
	"github.com/good-yellow-bee/logpulse/internal/ingest"
	"github.com/good-yellow-bee/logpulse/internal/models"
	"github.com/good-yellow-bee/logpulse/internal/query"
	"github.com/good-yellow-bee/logpulse/internal/storage"
)

// DefaultMaxBodyBytes bounds an ingest request body.
const DefaultMaxBodyBytes = 4 << 20

// Ingester stores incoming records.
type Ingester interface {
	Ingest(ctx context.Context, rec *models.LogRecord) (*models.LogRecord, error)
	IngestBatch(ctx context.Context, recs []*models.LogRecord) ([]*models.LogRecord, error)
}

// Handler handles log endpoints.
type Handler struct {
	store        storage.LogStore
	ingester     Ingester
	maxBodyBytes int64
	logger       logrus.FieldLogger
}

// NewHandler creates a new logs handler.
func NewHandler(store storage.LogStore, ingester Ingester, maxBodyBytes int64, logger logrus.FieldLogger) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		store:        store,
		ingester:     ingester,
		maxBodyBytes: maxBodyBytes,
		logger:       logger.WithField("component", "api.logs"),
	}
}

// Ingest handles POST /api/v1/logs. The body is one record or an array of
// records.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.JSONError(w, &respond.Error{
				Code:    respond.ErrCodeBadRequest,
				Message: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
				Status:  http.StatusRequestEntityTooLarge,
			})
			return
		}
		respond.JSONError(w, respond.NewBadRequest("failed to read request body"))
		return
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		respond.JSONError(w, respond.NewBadRequest("request body is empty"))
		return
	}

	ctx := ingest.WithOrigin(r.Context(), "api")

	if body[0] == '[' {
		var recs []*models.LogRecord
		if err := json.Unmarshal(body, &recs); err != nil {
			respond.JSONError(w, respond.NewBadRequest("invalid JSON body"))
			return
		}
		stored, err := h.ingester.IngestBatch(ctx, recs)
		if err != nil {
			h.writeIngestError(w, err)
			return
		}
		respond.Created(w, stored)
		return
	}

	var rec models.LogRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		respond.JSONError(w, respond.NewBadRequest("invalid JSON body"))
		return
	}
	stored, err := h.ingester.Ingest(ctx, &rec)
	if err != nil {
		h.writeIngestError(w, err)
		return
	}
	respond.Created(w, stored)
}

func (h *Handler) writeIngestError(w http.ResponseWriter, err error) {
	if errors.Is(err, ingest.ErrInvalidRecord) {
		respond.JSONError(w, respond.NewValidationError(err.Error()))
		return
	}
	h.logger.WithError(err).Error("ingest failed")
	respond.JSONError(w, respond.ErrInternalServer)
}

// Query handles GET /api/v1/logs. Filter parameters are lenient: values
// that do not parse are ignored.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	f := query.FromValues(r.URL.Query())
	respond.OK(w, nonNil(h.store.Query(f)))
}

// Get handles GET /api/v1/logs/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		respond.JSONError(w, respond.FromError(err, "Log not found"))
		return
	}
	respond.OK(w, rec)
}

// Export handles GET /api/v1/export?format=csv|json. Filter parameters
// narrow the exported set the same way they do for Query.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format, _ := export.ParseFormat(q.Get("format"))
	records := h.store.Query(query.FromValues(q))

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, format.Filename()))
	w.WriteHeader(http.StatusOK)

	if err := export.NewExporter(format, w).Export(records); err != nil {
		// Headers are gone; all that is left is to log.
		h.logger.WithError(err).WithField("format", format).Warn("export interrupted")
	}
}

func nonNil(recs []*models.LogRecord) []*models.LogRecord {
	if recs == nil {
		return []*models.LogRecord{}
	}
	return recs
}
