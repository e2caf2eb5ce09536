package cmd

import (
	"context"
	"fmt"

	"github.com/cherryfit/cherryfit/internal/app"
	"github.com/spf13/cobra"
)

func SyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Send unsynced records to the relay once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAgent(cmd, func(ctx context.Context, a *app.Agent) error {
				report := a.SyncService.Run(ctx, a.Cfg.OwnerID)
				out := cmd.OutOrStdout()
				if report.Skipped {
					fmt.Fprintln(out, "Sync already in progress")
					return nil
				}
				fmt.Fprintf(out, "Food logs: %d synced, %d failed\n", len(report.FoodLogs.SucceededIDs), report.FoodLogs.Failed)
				fmt.Fprintf(out, "Health metrics: %d synced, %d failed\n", len(report.HealthMetrics.SucceededIDs), report.HealthMetrics.Failed)
				return nil
			})
		},
	}
}

func PushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push [log-id...]",
		Short: "Push synced food logs to Fitbit",
		Long:  "Pushes every synced, not yet pushed food log to Fitbit, or only the given ids.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAgent(cmd, func(ctx context.Context, a *app.Agent) error {
				result, err := a.FitbitPushService.Push(ctx, a.Cfg.OwnerID, args)
				if err != nil {
					return err
				}
				if result.Skipped {
					fmt.Fprintln(cmd.OutOrStdout(), "Push already in progress")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d of %d food logs to Fitbit\n", len(result.Pushed), result.Total)
				return nil
			})
		},
	}
}
