package storage

import (
	"context"
	"sync"

	"github.com/good-yellow-bee/logpulse/internal/models"
)

// MemoryPreferenceStore keeps preferences for the lifetime of the process.
type MemoryPreferenceStore struct {
	mu    sync.RWMutex
	prefs map[string]*models.Preferences
}

// NewMemoryPreferenceStore creates an empty preference store.
func NewMemoryPreferenceStore() *MemoryPreferenceStore {
	return &MemoryPreferenceStore{prefs: make(map[string]*models.Preferences)}
}

func (s *MemoryPreferenceStore) Get(_ context.Context, userID string) (*models.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prefs[userID]
	if !ok {
		return models.DefaultPreferences(), nil
	}
	return clonePreferences(p), nil
}

func (s *MemoryPreferenceStore) Set(_ context.Context, userID string, prefs *models.Preferences) error {
	c := clonePreferences(prefs)

	s.mu.Lock()
	s.prefs[userID] = c
	s.mu.Unlock()
	return nil
}

func (s *MemoryPreferenceStore) Ping(context.Context) error { return nil }

func (s *MemoryPreferenceStore) Close() error { return nil }

func clonePreferences(p *models.Preferences) *models.Preferences {
	c := &models.Preferences{}
	if p.VisibleColumns != nil {
		c.VisibleColumns = append([]string(nil), p.VisibleColumns...)
	}
	if p.ColumnWidths != nil {
		c.ColumnWidths = make(map[string]int, len(p.ColumnWidths))
		for k, v := range p.ColumnWidths {
			c.ColumnWidths[k] = v
		}
	}
	c.Normalize()
	return c
}
