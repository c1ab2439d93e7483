package health

import (
	"context"
	"fmt"
)

// Pinger is implemented by stores that can check their backing storage.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PreferenceStoreChecker checks the preference store (SQLite or memory).
type PreferenceStoreChecker struct {
	pinger Pinger
}

// NewPreferenceStoreChecker creates a new preference store health checker.
func NewPreferenceStoreChecker(p Pinger) *PreferenceStoreChecker {
	return &PreferenceStoreChecker{pinger: p}
}

// Name returns the checker name.
func (c *PreferenceStoreChecker) Name() string {
	return "preferences"
}

// Check verifies the preference store is accessible.
func (c *PreferenceStoreChecker) Check(ctx context.Context) error {
	if c.pinger == nil {
		return fmt.Errorf("preference store not initialized")
	}
	return c.pinger.Ping(ctx)
}

// Counter reports how many records a store holds.
type Counter interface {
	Len() int
}

// LogStoreChecker reports the log store as unhealthy once it reaches its
// record cap, since every further append drops history.
type LogStoreChecker struct {
	store      Counter
	maxRecords int
}

// NewLogStoreChecker creates a log store health checker. maxRecords of 0
// means the store is uncapped.
func NewLogStoreChecker(store Counter, maxRecords int) *LogStoreChecker {
	return &LogStoreChecker{store: store, maxRecords: maxRecords}
}

// Name returns the checker name.
func (c *LogStoreChecker) Name() string {
	return "log_store"
}

// Check verifies the log store has headroom.
func (c *LogStoreChecker) Check(ctx context.Context) error {
	if c.store == nil {
		return fmt.Errorf("log store not initialized")
	}
	if c.maxRecords > 0 {
		if n := c.store.Len(); n >= c.maxRecords {
			return fmt.Errorf("log store full (%d/%d records)", n, c.maxRecords)
		}
	}
	return nil
}
