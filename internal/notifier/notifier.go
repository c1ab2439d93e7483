// Package notifier forwards alerts to external channels such as Slack,
// Microsoft Teams and generic webhooks.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/good-yellow-bee/logpulse/internal/metrics"
	"github.com/good-yellow-bee/logpulse/internal/models"
)

// Notifier is the interface for all notification channels.
type Notifier interface {
	// Name returns the notifier name (e.g., "slack", "webhook").
	Name() string
	// Send sends an alert notification.
	Send(ctx context.Context, alert *models.Alert) error
	// Close releases any resources.
	Close() error
}

// ErrRateLimited is returned when a notification is dropped due to rate limiting.
var ErrRateLimited = errors.New("notification rate limited")

// Options configures a Dispatcher.
type Options struct {
	// MaxPerMinute caps notifications across all notifiers; 0 disables the limit.
	MaxPerMinute int
	// QueueSize bounds alerts waiting for delivery.
	QueueSize int
	// SendTimeout bounds one delivery to all notifiers.
	SendTimeout time.Duration
}

// DefaultOptions returns default dispatcher options.
func DefaultOptions() Options {
	return Options{
		MaxPerMinute: 10,
		QueueSize:    64,
		SendTimeout:  30 * time.Second,
	}
}

// Dispatcher fans alerts out to every registered notifier. Alerts queued
// with Notify are delivered by Run so slow endpoints never hold up the
// caller.
type Dispatcher struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier

	limiter *rate.Limiter
	queue   chan *models.Alert
	timeout time.Duration
	log     logrus.FieldLogger

	sent    atomic.Int64
	failed  atomic.Int64
	limited atomic.Int64
	dropped atomic.Int64
}

// Stats is a snapshot of dispatcher counters.
type Stats struct {
	Sent    int64
	Failed  int64
	Limited int64
	Dropped int64
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(opts Options, logger logrus.FieldLogger) *Dispatcher {
	def := DefaultOptions()
	if opts.QueueSize <= 0 {
		opts.QueueSize = def.QueueSize
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = def.SendTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	var limiter *rate.Limiter
	if opts.MaxPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.MaxPerMinute)), opts.MaxPerMinute)
	}

	return &Dispatcher{
		notifiers: make(map[string]Notifier),
		limiter:   limiter,
		queue:     make(chan *models.Alert, opts.QueueSize),
		timeout:   opts.SendTimeout,
		log:       logger.WithField("component", "notifier"),
	}
}

// Register adds a notifier to the dispatcher.
func (d *Dispatcher) Register(n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifiers[n.Name()] = n
}

// Unregister removes a notifier from the dispatcher.
func (d *Dispatcher) Unregister(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.notifiers, name)
}

// Get returns a notifier by name.
func (d *Dispatcher) Get(name string) (Notifier, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.notifiers[name]
	return n, ok
}

// Len returns the number of registered notifiers.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.notifiers)
}

// Notify queues an alert for delivery without blocking. The alert is
// dropped if the queue is full.
func (d *Dispatcher) Notify(alert *models.Alert) {
	select {
	case d.queue <- alert:
	default:
		d.dropped.Add(1)
		d.log.WithField("alert", alert.ID).Warn("notification queue full, alert dropped")
	}
}

// Run delivers queued alerts until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case alert := <-d.queue:
			sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
			err := d.Dispatch(sendCtx, alert)
			cancel()
			if err != nil {
				d.log.WithError(err).WithField("alert", alert.ID).Warn("alert notification failed")
			}
		}
	}
}

// Dispatch sends an alert to all registered notifiers. It returns
// ErrRateLimited if the notification is dropped due to rate limiting.
func (d *Dispatcher) Dispatch(ctx context.Context, alert *models.Alert) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if len(d.notifiers) == 0 {
		return nil
	}

	if d.limiter != nil && !d.limiter.Allow() {
		d.limited.Add(1)
		for name := range d.notifiers {
			metrics.NotificationsTotal.WithLabelValues(name, "limited").Inc()
		}
		return ErrRateLimited
	}

	var errs []error
	for name, n := range d.notifiers {
		if err := n.Send(ctx, alert); err != nil {
			d.failed.Add(1)
			metrics.NotificationsTotal.WithLabelValues(name, "failure").Inc()
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		d.sent.Add(1)
		metrics.NotificationsTotal.WithLabelValues(name, "success").Inc()
	}

	return errors.Join(errs...)
}

// Stats returns dispatcher counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Sent:    d.sent.Load(),
		Failed:  d.failed.Load(),
		Limited: d.limited.Load(),
		Dropped: d.dropped.Load(),
	}
}

// Close closes all registered notifiers.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for name, n := range d.notifiers {
		if err := n.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	d.notifiers = make(map[string]Notifier)

	return errors.Join(errs...)
}
