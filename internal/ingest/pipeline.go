// Package ingest moves log records into the store and keeps the rest of the
// system in step: every accepted record is published to push subscribers
// and fed to the alert evaluator.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/good-yellow-bee/logpulse/internal/alerting"
	"github.com/good-yellow-bee/logpulse/internal/hub"
	"github.com/good-yellow-bee/logpulse/internal/metrics"
	"github.com/good-yellow-bee/logpulse/internal/models"
	"github.com/good-yellow-bee/logpulse/internal/storage"
)

// DefaultEvaluateInterval is how often the evaluation loop runs.
const DefaultEvaluateInterval = 5 * time.Second

// ErrInvalidRecord is returned for records that fail validation.
var ErrInvalidRecord = errors.New("invalid log record")

// Ingester accepts log records.
type Ingester interface {
	Ingest(ctx context.Context, rec *models.LogRecord) (*models.LogRecord, error)
}

type originKey struct{}

// WithOrigin tags ctx with the name of the producer (api, file, ...) used
// as a metrics label.
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, originKey{}, origin)
}

func originFrom(ctx context.Context) string {
	if o, ok := ctx.Value(originKey{}).(string); ok && o != "" {
		return o
	}
	return "direct"
}

// Options configures a Pipeline.
type Options struct {
	// EvaluateInterval is the evaluation cadence. Zero evaluates
	// synchronously after every ingest.
	EvaluateInterval time.Duration
}

// Pipeline appends records to the log store, publishes them and drives
// alert evaluation.
type Pipeline struct {
	store     storage.LogStore
	hub       *hub.Hub
	evaluator *alerting.Evaluator
	interval  time.Duration
	logger    logrus.FieldLogger

	now func() time.Time
}

// NewPipeline creates a pipeline. evaluator may be nil when alerting is
// disabled.
func NewPipeline(store storage.LogStore, h *hub.Hub, evaluator *alerting.Evaluator, opts Options, logger logrus.FieldLogger) *Pipeline {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.EvaluateInterval < 0 {
		opts.EvaluateInterval = DefaultEvaluateInterval
	}
	return &Pipeline{
		store:     store,
		hub:       h,
		evaluator: evaluator,
		interval:  opts.EvaluateInterval,
		logger:    logger.WithField("component", "ingest"),
		now:       time.Now,
	}
}

// normalize returns a copy of rec with id and timestamp filled in.
func (p *Pipeline) normalize(rec *models.LogRecord) (*models.LogRecord, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: record is empty", ErrInvalidRecord)
	}
	r := rec.Clone()
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = p.now()
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return r, nil
}

// Ingest validates and stores one record. The stored copy is returned.
func (p *Pipeline) Ingest(ctx context.Context, rec *models.LogRecord) (*models.LogRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	origin := originFrom(ctx)

	r, err := p.normalize(rec)
	if err != nil {
		metrics.IngestRejectedTotal.WithLabelValues(origin).Inc()
		return nil, err
	}

	p.append(r, origin)

	if p.interval == 0 {
		p.Evaluate(p.now())
	}
	return r, nil
}

// IngestBatch stores records in order. The batch is validated as a whole
// first; if any record is invalid nothing is stored.
func (p *Pipeline) IngestBatch(ctx context.Context, recs []*models.LogRecord) ([]*models.LogRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	origin := originFrom(ctx)

	out := make([]*models.LogRecord, 0, len(recs))
	for i, rec := range recs {
		r, err := p.normalize(rec)
		if err != nil {
			metrics.IngestRejectedTotal.WithLabelValues(origin).Inc()
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, r)
	}

	for _, r := range out {
		p.append(r, origin)
	}

	if p.interval == 0 && len(out) > 0 {
		p.Evaluate(p.now())
	}
	return out, nil
}

func (p *Pipeline) append(r *models.LogRecord, origin string) {
	if dropped := p.store.Append(r); dropped > 0 {
		metrics.StoreDroppedTotal.Add(float64(dropped))
		p.logger.WithField("dropped", dropped).Debug("store at capacity, oldest records dropped")
	}
	metrics.StoreRecords.Set(float64(p.store.Len()))
	metrics.IngestedTotal.WithLabelValues(string(r.Level), origin).Inc()

	if p.hub != nil {
		p.hub.Publish(hub.Event{Type: hub.EventLog, Data: r})
	}
}

// Evaluate runs one evaluation pass and returns the alerts it raised.
func (p *Pipeline) Evaluate(now time.Time) []*models.Alert {
	if p.evaluator == nil {
		return nil
	}
	timer := prometheus.NewTimer(metrics.EvaluationDuration)
	defer timer.ObserveDuration()
	return p.evaluator.Evaluate(now)
}

// RunEvaluator evaluates on every tick until ctx is cancelled. It returns
// at once when evaluation is synchronous or disabled.
func (p *Pipeline) RunEvaluator(ctx context.Context) error {
	if p.evaluator == nil || p.interval <= 0 {
		return nil
	}

	p.logger.WithField("interval", p.interval).Info("evaluation loop started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("evaluation loop stopped")
			return nil
		case <-ticker.C:
			p.Evaluate(p.now())
		}
	}
}
