package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/logpulse/internal/models"
)

var (
	tailLevel      string
	tailAlertsOnly bool
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow new logs and alerts in real-time",
	Long: `Connect to the server's live stream and print logs and alerts as
they arrive. Alerts already fired are printed first.

Examples:
  # Follow everything
  logpulsectl tail

  # Follow errors only
  logpulsectl tail --level error

  # Raw events as JSON lines
  logpulsectl tail -o json`,
	Args: cobra.NoArgs,
	RunE: runTail,
}

func init() {
	rootCmd.AddCommand(tailCmd)

	tailCmd.Flags().StringVarP(&tailLevel, "level", "l", "", "only print logs with this level")
	tailCmd.Flags().BoolVar(&tailAlertsOnly, "alerts-only", false, "only print alerts")
}

func runTail(cmd *cobra.Command, args []string) error {
	var level models.LogLevel
	if tailLevel != "" {
		lvl, ok := models.ParseLogLevel(tailLevel)
		if !ok {
			return fmt.Errorf("invalid --level %q (use info, warning or error)", tailLevel)
		}
		level = lvl
	}

	client, err := newClientFromFlags()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Following %s. Press Ctrl+C to stop.\n", serverURL)

	out := cmd.OutOrStdout()
	return client.Stream(ctx, func(ev StreamEvent) {
		printEvent(out, ev, level, tailAlertsOnly)
	})
}

func printEvent(w io.Writer, ev StreamEvent, level models.LogLevel, alertsOnly bool) {
	if GetOutput() == "json" {
		data, _ := json.Marshal(ev)
		fmt.Fprintln(w, string(data))
		return
	}

	switch ev.Type {
	case "alerts":
		var alerts []*models.Alert
		if err := json.Unmarshal(ev.Data, &alerts); err != nil {
			PrintVerbose("bad alerts snapshot: %v", err)
			return
		}
		for _, a := range alerts {
			printAlertLine(w, a)
		}
	case "alert":
		var a models.Alert
		if err := json.Unmarshal(ev.Data, &a); err != nil {
			PrintVerbose("bad alert event: %v", err)
			return
		}
		printAlertLine(w, &a)
	case "log":
		if alertsOnly {
			return
		}
		var rec models.LogRecord
		if err := json.Unmarshal(ev.Data, &rec); err != nil {
			PrintVerbose("bad log event: %v", err)
			return
		}
		if level != "" && rec.Level != level {
			return
		}
		printRecordLine(w, &rec)
	default:
		PrintVerbose("ignoring %q event", ev.Type)
	}
}
