package cmd

import (
	"context"
	"fmt"

	"github.com/cherryfit/cherryfit/internal/app"
	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/spf13/cobra"
)

func GoalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Show your daily goal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAgent(cmd, func(ctx context.Context, a *app.Agent) error {
				goal, err := a.Goals.Current(ctx, a.Cfg.OwnerID)
				if err != nil {
					return err
				}
				printGoal(cmd, goal)
				return nil
			})
		},
	}

	cmd.AddCommand(goalsSetCmd())
	return cmd
}

func goalsSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change individual goal values",
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := model.GoalPatch{
				Calories: floatFlag(cmd, "calories"),
				ProteinG: floatFlag(cmd, "protein"),
				CarbsG:   floatFlag(cmd, "carbs"),
				FatG:     floatFlag(cmd, "fat"),
				FiberG:   floatFlag(cmd, "fiber"),
				SugarG:   floatFlag(cmd, "sugar"),
				SodiumMg: floatFlag(cmd, "sodium"),
			}
			return withAgent(cmd, func(ctx context.Context, a *app.Agent) error {
				goal, err := a.Goals.Update(ctx, a.Cfg.OwnerID, patch)
				if err != nil {
					return err
				}
				printGoal(cmd, goal)
				return nil
			})
		},
	}

	addMacroFlags(cmd)
	return cmd
}

func printGoal(cmd *cobra.Command, goal *model.DailyGoal) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Goal: %s\n", formatMacros(goal.Macros))
	if goal.FiberG != nil {
		fmt.Fprintf(out, "Fiber: %.1fg\n", *goal.FiberG)
	}
	if goal.SugarG != nil {
		fmt.Fprintf(out, "Sugar: %.1fg\n", *goal.SugarG)
	}
	if goal.SodiumMg != nil {
		fmt.Fprintf(out, "Sodium: %.0fmg\n", *goal.SodiumMg)
	}
}
