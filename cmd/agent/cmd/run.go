package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cherryfit/cherryfit/internal/app"
	"github.com/spf13/cobra"
)

func RunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the sync and Fitbit push engines until interrupted",
		Long: "Runs both outbound engines on their timers. Send SIGUSR1 to sync immediately,\n" +
			"the way the app does when it comes to the foreground.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			return withAgent(cmd, func(ctx context.Context, a *app.Agent) error {
				usr1 := make(chan os.Signal, 1)
				signal.Notify(usr1, syscall.SIGUSR1)
				defer signal.Stop(usr1)

				foreground := make(chan struct{})
				go func() {
					for {
						select {
						case <-ctx.Done():
							return
						case <-usr1:
							select {
							case foreground <- struct{}{}:
							case <-ctx.Done():
								return
							}
						}
					}
				}()

				slog.Info("agent running",
					"owner_id", a.Cfg.OwnerID,
					"relay", a.Cfg.RelayURL,
					"sync_interval", a.Cfg.SyncInterval,
					"fitbit_push", a.Cfg.FitbitPushEnabled,
				)
				a.Run(ctx, foreground)
				slog.Info("agent stopped")
				return nil
			})
		},
	}
}
