// Package export encodes log record sets as CSV or JSON downloads.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/good-yellow-bee/logpulse/internal/models"
)

// Format defines the output format for exports.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Header is the CSV column order.
var Header = []string{"id", "timestamp", "level", "source", "message"}

// ParseFormat parses a string to Format. Unknown or empty values select
// JSON; ok reports whether the value was recognised.
func ParseFormat(s string) (f Format, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, true
	case "csv":
		return FormatCSV, true
	default:
		return FormatJSON, false
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json"
}

// Filename returns the attachment filename for the format.
func (f Format) Filename() string {
	if f == FormatCSV {
		return "logs.csv"
	}
	return "logs.json"
}

// Exporter writes record sets in one format.
type Exporter struct {
	format Format
	writer io.Writer
}

// NewExporter creates an exporter for the given format.
func NewExporter(format Format, w io.Writer) *Exporter {
	return &Exporter{
		format: format,
		writer: w,
	}
}

// Export writes records in the configured format.
func (e *Exporter) Export(records []*models.LogRecord) error {
	switch e.format {
	case FormatCSV:
		return e.exportCSV(records)
	default:
		return e.exportJSON(records)
	}
}

func (e *Exporter) exportJSON(records []*models.LogRecord) error {
	if records == nil {
		records = []*models.LogRecord{}
	}
	encoder := json.NewEncoder(e.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records)
}

func (e *Exporter) exportCSV(records []*models.LogRecord) error {
	w := csv.NewWriter(e.writer)

	if err := w.Write(Header); err != nil {
		return err
	}
	for _, rec := range records {
		err := w.Write([]string{
			rec.ID,
			rec.Timestamp.Format(time.RFC3339Nano),
			string(rec.Level),
			rec.Source,
			rec.Message,
		})
		if err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
