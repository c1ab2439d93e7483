package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/logpulse/internal/export"
	"github.com/good-yellow-bee/logpulse/internal/models"
	"github.com/good-yellow-bee/logpulse/internal/query"
)

var (
	queryFrom    string
	queryTo      string
	queryLevel   string
	queryKeyword string

	exportFormat string
	exportTo     string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query stored logs",
	Long: `Query logs held by the server. Filters combine: a record must match
every filter given.

Examples:
  # Errors since the start of the day
  logpulsectl query --level error --from 2026-10-16

  # Messages mentioning "timeout" as JSON
  logpulsectl query --keyword timeout -o json`,
	Args: cobra.NoArgs,
	RunE: runQuery,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored logs as CSV or JSON",
	Long: `Export logs matching the query filters to a file or stdout.

Examples:
  # Export today's errors to CSV
  logpulsectl export --level error --from 2026-10-16 --format csv --to-file errors.csv`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(exportCmd)

	for _, c := range []*cobra.Command{queryCmd, exportCmd} {
		c.Flags().StringVar(&queryFrom, "from", "", "only records at or after this time (YYYY-MM-DD or RFC3339)")
		c.Flags().StringVar(&queryTo, "to", "", "only records at or before this time; a bare date covers the whole day")
		c.Flags().StringVarP(&queryLevel, "level", "l", "", "only records with this level (info, warning, error)")
		c.Flags().StringVarP(&queryKeyword, "keyword", "k", "", "only records whose message contains this text (case-insensitive)")
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "export format (csv, json)")
	exportCmd.Flags().StringVar(&exportTo, "to-file", "", "export file path (default: stdout)")
}

// buildFilter validates the filter flags. The server itself ignores
// malformed values, so they are rejected here instead.
func buildFilter() (query.Filter, error) {
	var f query.Filter

	if queryFrom != "" {
		t, err := query.ParseTime(queryFrom)
		if err != nil {
			return f, fmt.Errorf("invalid --from: %w", err)
		}
		f.Start = t
	}
	if queryTo != "" {
		t, err := query.ParseTimeEndOfDay(queryTo)
		if err != nil {
			return f, fmt.Errorf("invalid --to: %w", err)
		}
		f.End = t
	}
	if queryLevel != "" {
		lvl, ok := models.ParseLogLevel(queryLevel)
		if !ok {
			return f, fmt.Errorf("invalid --level %q (use info, warning or error)", queryLevel)
		}
		f.Level = lvl
	}
	f.Keyword = queryKeyword

	return f, nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	f, err := buildFilter()
	if err != nil {
		return err
	}
	client, err := newClientFromFlags()
	if err != nil {
		return err
	}

	recs, err := client.QueryLogs(context.Background(), f)
	if err != nil {
		return err
	}
	PrintVerbose("%d record(s) matched", len(recs))
	return printRecords(cmd.OutOrStdout(), recs)
}

func runExport(cmd *cobra.Command, args []string) error {
	format, ok := export.ParseFormat(exportFormat)
	if !ok {
		return fmt.Errorf("invalid export format: %s (use json or csv)", exportFormat)
	}
	f, err := buildFilter()
	if err != nil {
		return err
	}
	client, err := newClientFromFlags()
	if err != nil {
		return err
	}

	recs, err := client.QueryLogs(context.Background(), f)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if exportTo != "" {
		file, err := os.Create(exportTo)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer file.Close()
		w = file
	}

	if err := export.NewExporter(format, w).Export(recs); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if exportTo != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d record(s) to %s\n", len(recs), exportTo)
	}
	return nil
}
