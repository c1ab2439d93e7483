package models

import (
	"time"

	"github.com/google/uuid"
)

// Bookmark is a point-in-time copy of a log record with its own identity.
// It does not follow the store; the record may be evicted while the
// bookmark remains.
type Bookmark struct {
	BookmarkID string    `json:"bookmarkId"`
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Level      LogLevel  `json:"level"`
	Source     string    `json:"source"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewBookmark copies rec into a new bookmark.
func NewBookmark(rec *LogRecord) *Bookmark {
	return &Bookmark{
		BookmarkID: uuid.New().String(),
		ID:         rec.ID,
		Timestamp:  rec.Timestamp,
		Level:      rec.Level,
		Source:     rec.Source,
		Message:    rec.Message,
		CreatedAt:  time.Now(),
	}
}
