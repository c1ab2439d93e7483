// Package retention periodically evicts log records older than the
// retention window.
package retention

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxAge   = 5 * 24 * time.Hour
	DefaultInterval = 24 * time.Hour
)

// Evictor removes records strictly older than cutoff and reports how many.
type Evictor interface {
	Evict(cutoff time.Time) int
}

// Sweeper evicts expired records on a fixed interval. Missed ticks are
// not caught up.
type Sweeper struct {
	store    Evictor
	maxAge   time.Duration
	interval time.Duration
	log      logrus.FieldLogger

	// OnSweep, if set, receives the number of records evicted by each sweep.
	OnSweep func(evicted int)
}

// NewSweeper creates a sweeper. Non-positive durations select the defaults.
func NewSweeper(store Evictor, maxAge, interval time.Duration, logger logrus.FieldLogger) *Sweeper {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Sweeper{
		store:    store,
		maxAge:   maxAge,
		interval: interval,
		log:      logger.WithField("component", "retention"),
	}
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.WithFields(logrus.Fields{
		"max_age":  s.maxAge,
		"interval": s.interval,
	}).Info("retention sweeper started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}

// Sweep evicts records older than now minus the retention window.
func (s *Sweeper) Sweep(now time.Time) int {
	cutoff := now.Add(-s.maxAge)
	n := s.store.Evict(cutoff)

	s.log.WithFields(logrus.Fields{
		"cutoff":  cutoff.Format(time.RFC3339),
		"evicted": n,
	}).Info("retention sweep completed")

	if s.OnSweep != nil {
		s.OnSweep(n)
	}
	return n
}
