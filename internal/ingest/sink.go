package ingest

import (
	"github.com/sirupsen/logrus"

	"github.com/good-yellow-bee/logpulse/internal/alerting"
	"github.com/good-yellow-bee/logpulse/internal/hub"
	"github.com/good-yellow-bee/logpulse/internal/metrics"
	"github.com/good-yellow-bee/logpulse/internal/models"
)

// AlertNotifier queues an alert for outbound delivery without blocking.
type AlertNotifier interface {
	Notify(alert *models.Alert)
}

// AlertSink records fired alerts in history and publishes them. The history
// append and the publish happen atomically with respect to new subscribers,
// so a subscriber sees each alert exactly once: in its snapshot or as an
// event.
type AlertSink struct {
	history  *alerting.History
	hub      *hub.Hub
	notifier AlertNotifier
	logger   logrus.FieldLogger
}

var _ alerting.Sink = (*AlertSink)(nil)

// NewAlertSink creates an alert sink. notifier may be nil.
func NewAlertSink(history *alerting.History, h *hub.Hub, notifier AlertNotifier, logger logrus.FieldLogger) *AlertSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AlertSink{
		history:  history,
		hub:      h,
		notifier: notifier,
		logger:   logger.WithField("component", "alerts"),
	}
}

// Emit implements alerting.Sink.
func (s *AlertSink) Emit(alert *models.Alert) {
	if s.hub != nil {
		s.hub.Commit(func() { s.history.Add(alert) }, hub.Event{Type: hub.EventAlert, Data: alert})
	} else {
		s.history.Add(alert)
	}

	metrics.AlertsFiredTotal.WithLabelValues(alert.Rule).Inc()

	if s.notifier != nil {
		s.notifier.Notify(alert)
	}
}
