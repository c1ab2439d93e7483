// Package storage provides the in-memory log store and the bookmark and
// preference repositories.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/good-yellow-bee/logpulse/internal/models"
	"github.com/good-yellow-bee/logpulse/internal/query"
)

// ErrNotFound is returned when a record, bookmark or preference set does not exist.
var ErrNotFound = errors.New("not found")

// LogStore is the bounded recent-history window of log records.
//
// Records returned by Query, Get and Scan are shared with the store and
// must be treated as read-only.
type LogStore interface {
	// Append stores rec and returns how many of the oldest records were
	// dropped to honour the record cap.
	Append(rec *models.LogRecord) int
	// Query returns all records matching f, most recent first.
	Query(f query.Filter) []*models.LogRecord
	// Evict removes records with a timestamp strictly before cutoff.
	Evict(cutoff time.Time) int
	// Get returns the most recently appended record with the given id.
	Get(id string) (*models.LogRecord, error)
	// Len returns the number of stored records.
	Len() int
	// Scan calls fn for each record, most recent first, until fn returns false.
	Scan(fn func(*models.LogRecord) bool)
}

// BookmarkStore holds bookmarked copies of log records.
type BookmarkStore interface {
	Create(rec *models.LogRecord) *models.Bookmark
	List() []*models.Bookmark
	Delete(id string) error
}

// PreferenceStore persists per-user display preferences.
type PreferenceStore interface {
	// Get returns the user's preferences, or the defaults if none are saved.
	Get(ctx context.Context, userID string) (*models.Preferences, error)
	// Set replaces the user's preferences.
	Set(ctx context.Context, userID string, prefs *models.Preferences) error
	// Ping checks the backing store is reachable.
	Ping(ctx context.Context) error
	Close() error
}
