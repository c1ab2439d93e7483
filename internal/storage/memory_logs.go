package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/good-yellow-bee/logpulse/internal/models"
	"github.com/good-yellow-bee/logpulse/internal/query"
)

// MemoryLogStore keeps log records in insertion order and serves them
// newest first. Appends and evictions take the write lock; queries share
// the read lock.
type MemoryLogStore struct {
	mu sync.RWMutex

	// records[head:] are live; the prefix is reclaimed by compact.
	records []*models.LogRecord
	head    int
	byID    map[string]*models.LogRecord

	maxRecords int
}

// NewMemoryLogStore creates a store. maxRecords <= 0 disables the cap.
func NewMemoryLogStore(maxRecords int) *MemoryLogStore {
	if maxRecords < 0 {
		maxRecords = 0
	}
	return &MemoryLogStore{
		byID:       make(map[string]*models.LogRecord),
		maxRecords: maxRecords,
	}
}

// Append stores a copy of rec.
func (s *MemoryLogStore) Append(rec *models.LogRecord) int {
	c := rec.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, c)
	s.byID[c.ID] = c

	dropped := 0
	if s.maxRecords > 0 {
		for s.len() > s.maxRecords {
			s.forget(s.records[s.head])
			s.records[s.head] = nil
			s.head++
			dropped++
		}
		s.compact()
	}
	return dropped
}

// Query returns matching records, most recent first.
func (s *MemoryLogStore) Query(f query.Filter) []*models.LogRecord {
	match := f.Predicate()

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.LogRecord, 0)
	for i := len(s.records) - 1; i >= s.head; i-- {
		if match(s.records[i]) {
			result = append(result, s.records[i])
		}
	}
	return result
}

// Evict removes every record older than cutoff, regardless of where it
// sits in insertion order. Calling it twice with the same cutoff removes
// nothing the second time.
func (s *MemoryLogStore) Evict(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	removed := 0
	for _, rec := range s.records[s.head:] {
		if rec.Timestamp.Before(cutoff) {
			s.forget(rec)
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	for i := len(kept); i < len(s.records); i++ {
		s.records[i] = nil
	}
	s.records = kept
	s.head = 0
	return removed
}

// Get looks up a record by id.
func (s *MemoryLogStore) Get(id string) (*models.LogRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("log %s: %w", id, ErrNotFound)
	}
	return rec, nil
}

// Len returns the number of stored records.
func (s *MemoryLogStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.len()
}

// Scan iterates records newest first under the read lock. fn must not
// call back into the store's write methods.
func (s *MemoryLogStore) Scan(fn func(*models.LogRecord) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.records) - 1; i >= s.head; i-- {
		if !fn(s.records[i]) {
			return
		}
	}
}

func (s *MemoryLogStore) len() int {
	return len(s.records) - s.head
}

// forget drops rec from the id index unless a newer record owns the id.
func (s *MemoryLogStore) forget(rec *models.LogRecord) {
	if s.byID[rec.ID] == rec {
		delete(s.byID, rec.ID)
	}
}

// compact reclaims the dropped prefix once it dominates the backing array.
func (s *MemoryLogStore) compact() {
	if s.head == 0 || s.head < len(s.records)/2 {
		return
	}
	n := copy(s.records, s.records[s.head:])
	for i := n; i < len(s.records); i++ {
		s.records[i] = nil
	}
	s.records = s.records[:n]
	s.head = 0
}
