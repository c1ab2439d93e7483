// Package dashboard computes the level counts and hourly error-rate series
// shown on the dashboard.
package dashboard

import (
	"sort"
	"time"

	"github.com/good-yellow-bee/logpulse/internal/models"
)

// Hours is the length of the error-rate series.
const Hours = 24

// Counts holds record totals per level.
type Counts struct {
	Error   int `json:"error"`
	Warning int `json:"warning"`
	Info    int `json:"info"`
}

// HourlyRate is the error share of one hour bucket.
type HourlyRate struct {
	Hour      time.Time `json:"hour"`
	ErrorRate float64   `json:"errorRate"`
	Total     int       `json:"total"`
	Errors    int       `json:"errors"`
}

// Summary is the dashboard payload.
type Summary struct {
	Counts          Counts       `json:"counts"`
	HourlyErrorRate []HourlyRate `json:"hourlyErrorRate"`
}

// Scanner iterates stored records.
type Scanner interface {
	Scan(fn func(*models.LogRecord) bool)
}

// Summarize computes the summary over every record in src. Hour buckets
// start at the top of the hour in now's location, oldest first, and cover
// [hour, next hour); the last bucket is the current hour.
func Summarize(src Scanner, now time.Time) Summary {
	// bounds[i] is the start of bucket i; bounds[Hours] is the exclusive end.
	var bounds [Hours + 1]time.Time
	for i := range bounds {
		bounds[i] = time.Date(now.Year(), now.Month(), now.Day(), now.Hour()-(Hours-1)+i, 0, 0, 0, now.Location())
	}

	s := Summary{HourlyErrorRate: make([]HourlyRate, Hours)}
	for i := range s.HourlyErrorRate {
		s.HourlyErrorRate[i].Hour = bounds[i]
	}

	src.Scan(func(rec *models.LogRecord) bool {
		switch rec.Level {
		case models.LevelError:
			s.Counts.Error++
		case models.LevelWarning:
			s.Counts.Warning++
		case models.LevelInfo:
			s.Counts.Info++
		}

		if rec.Timestamp.Before(bounds[0]) || !rec.Timestamp.Before(bounds[Hours]) {
			return true
		}
		i := sort.Search(Hours, func(i int) bool { return rec.Timestamp.Before(bounds[i+1]) })
		b := &s.HourlyErrorRate[i]
		b.Total++
		if rec.Level == models.LevelError {
			b.Errors++
		}
		return true
	})

	for i := range s.HourlyErrorRate {
		b := &s.HourlyErrorRate[i]
		if b.Total > 0 {
			b.ErrorRate = float64(b.Errors) / float64(b.Total)
		}
	}
	return s
}
