// Package hub fans out log and alert events to connected push subscribers.
//
// Delivery is best-effort and at-most-once per subscriber: each subscriber
// has a bounded queue, and an event that does not fit is dropped for that
// subscriber only. Nothing is replayed after reconnect apart from the alert
// history snapshot sent on subscribe.
package hub

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Event types.
const (
	EventAlerts = "alerts"
	EventLog    = "log"
	EventAlert  = "alert"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 256

// Event is the push message envelope.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// SnapshotFunc returns the data for the snapshot event sent on subscribe.
type SnapshotFunc func() any

// Subscriber is one push connection's view of the event stream.
type Subscriber struct {
	ID string

	events  chan Event
	dropped atomic.Int64
	closed  bool // guarded by Hub.mu
}

// Events returns the subscriber's queue. It is closed on Unsubscribe or Close.
func (s *Subscriber) Events() <-chan Event {
	return s.events
}

// Dropped returns how many events were discarded because the queue was full.
func (s *Subscriber) Dropped() int64 {
	return s.dropped.Load()
}

// Stats is a snapshot of hub counters.
type Stats struct {
	Subscribers int
	Published   int64
	Dropped     int64
}

// Hub holds the subscriber set.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	snapshot    SnapshotFunc
	closed      bool

	published atomic.Int64
	dropped   atomic.Int64

	logger logrus.FieldLogger

	// OnDrop, if set, is called for every event dropped on a full queue.
	OnDrop func(sub *Subscriber, ev Event)
}

// New creates a hub. snapshot supplies the data of the initial alerts
// event; nil sends an empty list.
func New(snapshot SnapshotFunc, logger logrus.FieldLogger) *Hub {
	if snapshot == nil {
		snapshot = func() any { return []any{} }
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Hub{
		subscribers: make(map[string]*Subscriber),
		snapshot:    snapshot,
		logger:      logger.WithField("component", "hub"),
	}
}

// Subscribe registers a subscriber. The snapshot is taken and queued under
// the same lock that publishers use, so every later event is one the
// snapshot did not already include.
func (h *Hub) Subscribe(buffer int) *Subscriber {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	sub := &Subscriber{
		ID:     uuid.New().String(),
		events: make(chan Event, buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	sub.events <- Event{Type: EventAlerts, Data: h.snapshot()}

	if h.closed {
		sub.closed = true
		close(sub.events)
		return sub
	}
	h.subscribers[sub.ID] = sub

	h.logger.WithFields(logrus.Fields{
		"subscriber":  sub.ID,
		"subscribers": len(h.subscribers),
	}).Debug("subscriber connected")
	return sub
}

// Unsubscribe removes sub and closes its queue. Calling it more than once is safe.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(sub)
}

func (h *Hub) remove(sub *Subscriber) {
	if sub.closed {
		return
	}
	sub.closed = true
	delete(h.subscribers, sub.ID)
	close(sub.events)

	h.logger.WithFields(logrus.Fields{
		"subscriber":  sub.ID,
		"subscribers": len(h.subscribers),
		"dropped":     sub.Dropped(),
	}).Debug("subscriber disconnected")
}

// Publish delivers ev to every subscriber without blocking.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.publish(ev)
}

// Commit runs apply and publishes ev as one step with respect to
// Subscribe, so a new subscriber either sees apply's effect in its
// snapshot or receives ev, never both and never neither.
func (h *Hub) Commit(apply func(), ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if apply != nil {
		apply()
	}
	h.publish(ev)
}

func (h *Hub) publish(ev Event) {
	if h.closed {
		return
	}
	h.published.Add(1)
	for _, sub := range h.subscribers {
		select {
		case sub.events <- ev:
		default:
			sub.dropped.Add(1)
			if n := h.dropped.Add(1); n == 1 || n%100 == 0 {
				h.logger.WithFields(logrus.Fields{
					"subscriber": sub.ID,
					"total":      n,
				}).Warn("subscriber queue full, event dropped")
			}
			if h.OnDrop != nil {
				h.OnDrop(sub, ev)
			}
		}
	}
}

// Len returns the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Stats returns hub counters.
func (h *Hub) Stats() Stats {
	return Stats{
		Subscribers: h.Len(),
		Published:   h.published.Load(),
		Dropped:     h.dropped.Load(),
	}
}

// Close disconnects every subscriber. Later subscribers are closed
// immediately after receiving their snapshot.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	for _, sub := range h.subscribers {
		h.remove(sub)
	}
	h.closed = true
}
