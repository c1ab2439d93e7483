package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/logpulse/internal/models"
)

var (
	sendLevel   string
	sendSource  string
	sendMessage string
	sendFile    string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send log records to the server",
	Long: `Send one record built from flags, or JSON-lines records read from a
file or stdin. Records are submitted as one batch: if any record is
invalid, nothing is stored.

Examples:
  # Send a single record
  logpulsectl send --level warning --source worker --message "queue depth 900"

  # Send records from a file
  logpulsectl send -f app.jsonl

  # Pipe records in
  tail -n 100 app.jsonl | logpulsectl send -f -`,
	Args: cobra.NoArgs,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&sendLevel, "level", "l", "info", "record level (info, warning, error)")
	sendCmd.Flags().StringVar(&sendSource, "source", "logpulsectl", "record source tag")
	sendCmd.Flags().StringVarP(&sendMessage, "message", "m", "", "record message")
	sendCmd.Flags().StringVarP(&sendFile, "file", "f", "", "JSON-lines file to send (- for stdin)")
}

func runSend(cmd *cobra.Command, args []string) error {
	var recs []*models.LogRecord

	switch {
	case sendFile != "":
		r := cmd.InOrStdin()
		if sendFile != "-" {
			f, err := os.Open(sendFile)
			if err != nil {
				return fmt.Errorf("open %s: %w", sendFile, err)
			}
			defer f.Close()
			r = f
		}
		var err error
		recs, err = readRecords(r)
		if err != nil {
			return err
		}
	case sendMessage != "":
		level, ok := models.ParseLogLevel(sendLevel)
		if !ok {
			return fmt.Errorf("invalid level %q (use info, warning or error)", sendLevel)
		}
		recs = []*models.LogRecord{{Level: level, Source: sendSource, Message: sendMessage}}
	default:
		return fmt.Errorf("either --message or --file is required")
	}

	client, err := newClientFromFlags()
	if err != nil {
		return err
	}

	PrintVerbose("Sending %d record(s) to %s", len(recs), serverURL)
	stored, err := client.SendLogs(context.Background(), recs)
	if err != nil {
		return err
	}

	if GetOutput() == "json" {
		return printJSON(cmd.OutOrStdout(), stored)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored %d record(s).\n", len(stored))
	return nil
}

// readRecords parses JSON-lines input. Blank lines are skipped; a
// malformed line fails the whole read.
func readRecords(r io.Reader) ([]*models.LogRecord, error) {
	var recs []*models.LogRecord
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec models.LogRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		recs = append(recs, &rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("no records found")
	}
	return recs, nil
}
