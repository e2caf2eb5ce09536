package cmd

import (
	"context"
	"fmt"

	"github.com/cherryfit/cherryfit/internal/app"
	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/spf13/cobra"
)

func FitbitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fitbit",
		Short: "Show the relay's Fitbit connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAgent(cmd, func(ctx context.Context, a *app.Agent) error {
				status, err := a.Relay.FitbitStatus(ctx, a.Cfg.OwnerID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Fitbit: %s\n", status.State)
				if status.FitbitUserID != "" {
					fmt.Fprintf(out, "User: %s\n", status.FitbitUserID)
				}
				if status.ExpiresAt != nil {
					fmt.Fprintf(out, "Token expires: %s\n", status.ExpiresAt.Local().Format("2006-01-02 15:04"))
				}
				if status.State == model.FitbitStateDisconnected {
					fmt.Fprintf(out, "Connect at %s/api/fitbit/auth\n", a.Cfg.RelayURL)
				}
				return nil
			})
		},
	}
}
