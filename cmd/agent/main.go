package main

import (
	"os"

	"github.com/cherryfit/cherryfit/cmd/agent/cmd"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "cherryfit",
		Short:         "Local-first nutrition log with background sync",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(cmd.RunCmd())
	rootCmd.AddCommand(cmd.SyncCmd())
	rootCmd.AddCommand(cmd.PushCmd())
	rootCmd.AddCommand(cmd.LogCmd())
	rootCmd.AddCommand(cmd.TodayCmd())
	rootCmd.AddCommand(cmd.TrendsCmd())
	rootCmd.AddCommand(cmd.GoalsCmd())
	rootCmd.AddCommand(cmd.FoodsCmd())
	rootCmd.AddCommand(cmd.BarcodeCmd())
	rootCmd.AddCommand(cmd.MetricCmd())
	rootCmd.AddCommand(cmd.FitbitCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
