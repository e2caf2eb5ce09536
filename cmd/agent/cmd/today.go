package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/cherryfit/cherryfit/internal/app"
	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/spf13/cobra"
)

func TodayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show the day's intake against your goal",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")
			at := time.Now()
			if date != "" {
				parsed, err := time.Parse(model.DateLayout, date)
				if err != nil {
					return fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", date)
				}
				at = parsed
			}

			return withAgent(cmd, func(ctx context.Context, a *app.Agent) error {
				s, err := a.SummaryService.Day(ctx, a.Cfg.OwnerID, at)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Date: %s (%d entries)\n", s.Date, s.Entries)
				fmt.Fprintf(out, "Intake: %d kcal | P %.1fg | C %.1fg | F %.1fg\n", s.Intake.Calories, s.Intake.ProteinG, s.Intake.CarbsG, s.Intake.FatG)
				if s.Burned != nil {
					fmt.Fprintf(out, "Burned: %.0f kcal\n", *s.Burned)
				}
				fmt.Fprintf(out, "Goal: %s\n", formatMacros(s.Goal))
				fmt.Fprintf(out, "Remaining: %d kcal | P %.1fg | C %.1fg | F %.1fg\n", s.Remaining.Calories, s.Remaining.ProteinG, s.Remaining.CarbsG, s.Remaining.FatG)
				return nil
			})
		},
	}

	cmd.Flags().String("date", "", "Date YYYY-MM-DD (default today)")
	return cmd
}

func TrendsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Show daily totals over a range of days",
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")
			remote, _ := cmd.Flags().GetBool("remote")
			if days <= 0 {
				return fmt.Errorf("--days must be > 0")
			}
			end := time.Now().UTC()
			startDate := end.AddDate(0, 0, -(days - 1)).Format(model.DateLayout)
			endDate := end.Format(model.DateLayout)

			return withAgent(cmd, func(ctx context.Context, a *app.Agent) error {
				var (
					trends []model.DailyNutrition
					err    error
				)
				if remote {
					trends, err = a.Relay.Trends(ctx, a.Cfg.OwnerID, startDate, endDate)
				} else {
					trends, err = a.FoodLogs.DailyTotals(ctx, a.Cfg.OwnerID, startDate, endDate)
				}
				if err != nil {
					return err
				}
				if len(trends) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No food logged between %s and %s\n", startDate, endDate)
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "DATE\tKCAL\tPROTEIN\tCARBS\tFAT")
				for _, d := range trends {
					fmt.Fprintf(w, "%s\t%d\t%.1f\t%.1f\t%.1f\n", d.Date, d.Calories, d.ProteinG, d.CarbsG, d.FatG)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().Int("days", 7, "Number of days ending today")
	cmd.Flags().Bool("remote", false, "Read totals from the relay instead of this device")
	return cmd
}
