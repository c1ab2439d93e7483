// Package cmd contains the CLI commands for logpulsectl.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// Used for flags
	serverURL string
	timeout   time.Duration
	verbose   bool
	output    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "logpulsectl",
	Short: "LogPulse - command line client for a LogPulse server",
	Long: `logpulsectl talks to a running LogPulse server over its HTTP API.

It can send log records, query and export stored logs, list fired
alerts, print the dashboard summary and follow the live event stream.

Examples:
  # Send one record
  logpulsectl send --level error --source api --message "upstream timeout"

  # Send JSON-lines records from a file
  logpulsectl send -f app.jsonl

  # Query today's errors mentioning "timeout"
  logpulsectl query --level error --keyword timeout --from 2026-10-16

  # Follow new logs and alerts
  logpulsectl tail`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		// Show help by default
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	defaultServer := os.Getenv("LOGPULSE_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", defaultServer, "LogPulse server URL (env LOGPULSE_SERVER)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "HTTP request timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format (table, json)")
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

// GetOutput returns the output format.
func GetOutput() string {
	return output
}

// PrintVerbose prints a message to stderr only if verbose mode is enabled.
func PrintVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

func newClientFromFlags() (*Client, error) {
	return NewClient(serverURL, timeout)
}
