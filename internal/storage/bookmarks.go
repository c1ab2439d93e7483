package storage

import (
	"fmt"
	"sync"

	"github.com/good-yellow-bee/logpulse/internal/models"
)

// MemoryBookmarkStore keeps bookmarks in creation order.
type MemoryBookmarkStore struct {
	mu        sync.RWMutex
	bookmarks []*models.Bookmark
}

// NewMemoryBookmarkStore creates an empty bookmark store.
func NewMemoryBookmarkStore() *MemoryBookmarkStore {
	return &MemoryBookmarkStore{}
}

func (s *MemoryBookmarkStore) Create(rec *models.LogRecord) *models.Bookmark {
	b := models.NewBookmark(rec)

	s.mu.Lock()
	s.bookmarks = append(s.bookmarks, b)
	s.mu.Unlock()

	return b
}

func (s *MemoryBookmarkStore) List() []*models.Bookmark {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Bookmark, len(s.bookmarks))
	copy(out, s.bookmarks)
	return out
}

func (s *MemoryBookmarkStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, b := range s.bookmarks {
		if b.BookmarkID == id {
			s.bookmarks = append(s.bookmarks[:i], s.bookmarks[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("bookmark %s: %w", id, ErrNotFound)
}
