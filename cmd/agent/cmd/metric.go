package cmd

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/cherryfit/cherryfit/internal/app"
	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/spf13/cobra"
)

func MetricCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metric",
		Short: "Record and show health metrics",
	}

	cmd.AddCommand(metricAddCmd())
	cmd.AddCommand(metricShowCmd())
	return cmd
}

func metricAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <type> <value>",
		Short: "Record one reading, e.g. \"metric add steps 8421\"",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			metricType := model.MetricType(args[0])
			if !metricType.Valid() {
				return fmt.Errorf("unknown metric type %q", args[0])
			}
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid value %q", args[1])
			}
			at, _ := cmd.Flags().GetString("at")
			source, _ := cmd.Flags().GetString("source")
			recordedAt, err := parseWhen(at)
			if err != nil {
				return err
			}
			if recordedAt == nil {
				now := model.Now()
				recordedAt = &now
			}

			return withAgent(cmd, func(ctx context.Context, a *app.Agent) error {
				m, err := a.HealthMetrics.Save(ctx, a.Cfg.OwnerID, metricType, value, *recordedAt, source)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s = %g at %s\n", m.MetricType, m.Value, m.RecordedAt)
				return nil
			})
		},
	}

	cmd.Flags().String("at", "", "When it was measured (default now)")
	cmd.Flags().String("source", "", "Where the reading came from (default health_connect)")
	return cmd
}

func metricShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <type>",
		Short: "Show recent readings of one metric",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			metricType := model.MetricType(args[0])
			if !metricType.Valid() {
				return fmt.Errorf("unknown metric type %q", args[0])
			}
			days, _ := cmd.Flags().GetInt("days")
			if days <= 0 {
				return fmt.Errorf("--days must be > 0")
			}
			end := time.Now().UTC()
			startDate := end.AddDate(0, 0, -(days - 1)).Format(model.DateLayout)

			return withAgent(cmd, func(ctx context.Context, a *app.Agent) error {
				metrics, err := a.HealthMetrics.ByRange(ctx, a.Cfg.OwnerID, metricType, startDate, end.Format(model.DateLayout))
				if err != nil {
					return err
				}
				latest, err := a.HealthMetrics.Latest(ctx, a.Cfg.OwnerID, metricType)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if latest == nil {
					fmt.Fprintf(out, "No %s readings\n", metricType)
					return nil
				}
				fmt.Fprintf(out, "Latest: %g at %s\n", latest.Value, latest.RecordedAt)

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "RECORDED\tVALUE\tSOURCE\tSYNCED")
				for _, m := range metrics {
					fmt.Fprintf(w, "%s\t%g\t%s\t%t\n", m.RecordedAt, m.Value, m.Source, m.Synced)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().Int("days", 7, "Number of days ending today")
	return cmd
}
