package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List fired alerts",
	Long:  `List alerts fired by the server, oldest first.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClientFromFlags()
		if err != nil {
			return err
		}
		alerts, err := client.Alerts(context.Background())
		if err != nil {
			return err
		}
		return printAlerts(cmd.OutOrStdout(), alerts)
	},
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show log counts and the hourly error rate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClientFromFlags()
		if err != nil {
			return err
		}
		summary, err := client.Dashboard(context.Background())
		if err != nil {
			return err
		}
		return printSummary(cmd.OutOrStdout(), summary)
	},
}

func init() {
	rootCmd.AddCommand(alertsCmd)
	rootCmd.AddCommand(dashboardCmd)
}
