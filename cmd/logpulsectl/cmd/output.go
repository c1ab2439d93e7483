package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/good-yellow-bee/logpulse/internal/dashboard"
	"github.com/good-yellow-bee/logpulse/internal/models"
)

const maxMessageWidth = 100

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRecords(w io.Writer, recs []*models.LogRecord) error {
	if GetOutput() == "json" {
		return printJSON(w, recs)
	}
	if len(recs) == 0 {
		fmt.Fprintln(w, "No logs found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tLEVEL\tSOURCE\tMESSAGE")
	for _, rec := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			rec.Timestamp.Local().Format("2006-01-02 15:04:05"),
			rec.Level, rec.Source, truncate(rec.Message, maxMessageWidth))
	}
	return tw.Flush()
}

func printRecordLine(w io.Writer, rec *models.LogRecord) {
	fmt.Fprintf(w, "%s [%-7s] [%s] %s\n",
		rec.Timestamp.Local().Format("2006-01-02 15:04:05"), rec.Level, rec.Source, rec.Message)
}

func printAlerts(w io.Writer, alerts []*models.Alert) error {
	if GetOutput() == "json" {
		return printJSON(w, alerts)
	}
	if len(alerts) == 0 {
		fmt.Fprintln(w, "No alerts fired.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tSEVERITY\tRULE\tTITLE\tMESSAGE")
	for _, a := range alerts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			a.Timestamp.Local().Format("2006-01-02 15:04:05"),
			a.Severity, a.Rule, a.Title, truncate(a.Message, maxMessageWidth))
	}
	return tw.Flush()
}

func printAlertLine(w io.Writer, a *models.Alert) {
	fmt.Fprintf(w, "%s ALERT [%s] %s: %s\n",
		a.Timestamp.Local().Format("2006-01-02 15:04:05"), a.Severity, a.Title, a.Message)
}

func printSummary(w io.Writer, s *dashboard.Summary) error {
	if GetOutput() == "json" {
		return printJSON(w, s)
	}

	fmt.Fprintln(w, "=== Log Counts ===")
	fmt.Fprintf(w, "Errors:   %d\n", s.Counts.Error)
	fmt.Fprintf(w, "Warnings: %d\n", s.Counts.Warning)
	fmt.Fprintf(w, "Info:     %d\n", s.Counts.Info)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Hourly Error Rate (last 24h) ===")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "HOUR\tTOTAL\tERRORS\tRATE")
	for _, h := range s.HourlyErrorRate {
		if h.Total == 0 {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f%%\n",
			h.Hour.Local().Format("2006-01-02 15:04"), h.Total, h.Errors, h.ErrorRate*100)
	}
	return tw.Flush()
}
