package cmd

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/cherryfit/cherryfit/internal/app"
	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/spf13/cobra"
)

func LogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Record and manage food logs",
	}

	cmd.AddCommand(logAddCmd())
	cmd.AddCommand(logEditCmd())
	cmd.AddCommand(logRemoveCmd())
	cmd.AddCommand(logListCmd())
	return cmd
}

func logAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [food name]",
		Short: "Log food, from flags or a saved catalog item",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAgent(cmd, func(ctx context.Context, a *app.Agent) error {
				input, itemID, err := logInputFromFlags(ctx, cmd, a, args)
				if err != nil {
					return err
				}

				log, err := a.FoodLogs.Create(ctx, a.Cfg.OwnerID, input)
				if err != nil {
					return err
				}
				if itemID != "" {
					if err := a.FoodItems.IncrementUseCount(ctx, a.Cfg.OwnerID, itemID); err != nil {
						return err
					}
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Logged %s (%s): %s x %.2f\n", log.FoodName, log.MealType, formatMacros(log.Macros), log.Servings)
				fmt.Fprintf(cmd.OutOrStdout(), "ID: %s\n", log.ID)
				return nil
			})
		},
	}

	cmd.Flags().String("meal", string(model.MealSnack), "Meal: breakfast, lunch, dinner or snack")
	cmd.Flags().String("source", string(model.SourceManual), "How the entry was captured")
	cmd.Flags().String("serving", "", "Serving description, e.g. \"1 cup\"")
	cmd.Flags().Float64("servings", 1, "Number of servings (0.25-99)")
	cmd.Flags().String("at", "", "When it was eaten (default now)")
	cmd.Flags().String("item", "", "Catalog item id to copy nutrition from")
	cmd.Flags().String("photo-url", "", "Photo reference returned by the relay")
	addMacroFlags(cmd)
	return cmd
}

func logInputFromFlags(ctx context.Context, cmd *cobra.Command, a *app.Agent, args []string) (model.FoodLogInput, string, error) {
	meal, _ := cmd.Flags().GetString("meal")
	source, _ := cmd.Flags().GetString("source")
	serving, _ := cmd.Flags().GetString("serving")
	servings, _ := cmd.Flags().GetFloat64("servings")
	itemID, _ := cmd.Flags().GetString("item")
	at, _ := cmd.Flags().GetString("at")

	loggedAt, err := parseWhen(at)
	if err != nil {
		return model.FoodLogInput{}, "", err
	}

	input := model.FoodLogInput{
		MealType:    model.MealType(meal),
		Source:      model.Source(source),
		ServingSize: serving,
		Servings:    servings,
		Macros:      macrosFromFlags(cmd),
		PhotoURL:    stringFlag(cmd, "photo-url"),
		LoggedAt:    loggedAt,
	}
	if len(args) == 1 {
		input.FoodName = args[0]
	}

	if itemID != "" {
		item, err := a.FoodItems.ByID(ctx, a.Cfg.OwnerID, itemID)
		if err != nil {
			return model.FoodLogInput{}, "", err
		}
		if input.FoodName == "" {
			input.FoodName = item.Name
		}
		if input.ServingSize == "" {
			input.ServingSize = item.ServingSize
		}
		input.Macros = item.Macros
		if item.Barcode != nil && !cmd.Flags().Changed("source") {
			input.Source = model.SourceBarcode
		}
	}

	if input.FoodName == "" {
		return model.FoodLogInput{}, "", errors.New("a food name or --item is required")
	}
	if !input.MealType.Valid() {
		return model.FoodLogInput{}, "", fmt.Errorf("unknown meal %q", meal)
	}
	if !input.Source.Valid() {
		return model.FoodLogInput{}, "", fmt.Errorf("unknown source %q", source)
	}
	if input.Servings < model.MinServings || input.Servings > model.MaxServings {
		return model.FoodLogInput{}, "", fmt.Errorf("servings must be between %.2f and %d", model.MinServings, model.MaxServings)
	}
	if err := input.Macros.Validate(); err != nil {
		return model.FoodLogInput{}, "", err
	}
	return input, itemID, nil
}

func logEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a food log; it syncs again afterwards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAgent(cmd, func(ctx context.Context, a *app.Agent) error {
				patch := model.FoodLogPatch{
					FoodName:    stringFlag(cmd, "name"),
					ServingSize: stringFlag(cmd, "serving"),
					Servings:    floatFlag(cmd, "servings"),
					Calories:    floatFlag(cmd, "calories"),
					ProteinG:    floatFlag(cmd, "protein"),
					CarbsG:      floatFlag(cmd, "carbs"),
					FatG:        floatFlag(cmd, "fat"),
					FiberG:      floatFlag(cmd, "fiber"),
					SugarG:      floatFlag(cmd, "sugar"),
					SodiumMg:    floatFlag(cmd, "sodium"),
					PhotoURL:    stringFlag(cmd, "photo-url"),
				}
				if meal := stringFlag(cmd, "meal"); meal != nil {
					m := model.MealType(*meal)
					if !m.Valid() {
						return fmt.Errorf("unknown meal %q", *meal)
					}
					patch.MealType = &m
				}
				if at := stringFlag(cmd, "at"); at != nil {
					loggedAt, err := parseWhen(*at)
					if err != nil {
						return err
					}
					patch.LoggedAt = loggedAt
				}
				if err := patch.Validate(); err != nil {
					return err
				}

				if err := a.FoodLogs.Update(ctx, a.Cfg.OwnerID, args[0], patch); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().String("name", "", "Food name")
	cmd.Flags().String("meal", "", "Meal: breakfast, lunch, dinner or snack")
	cmd.Flags().String("serving", "", "Serving description")
	cmd.Flags().Float64("servings", 1, "Number of servings (0.25-99)")
	cmd.Flags().String("at", "", "When it was eaten")
	cmd.Flags().String("photo-url", "", "Photo reference")
	addMacroFlags(cmd)
	return cmd
}

func logRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a food log from this device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAgent(cmd, func(ctx context.Context, a *app.Agent) error {
				if err := a.FoodLogs.Delete(ctx, a.Cfg.OwnerID, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func logListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List food logs for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")
			date, err := dateOrToday(date)
			if err != nil {
				return err
			}
			return withAgent(cmd, func(ctx context.Context, a *app.Agent) error {
				logs, err := a.FoodLogs.ByDate(ctx, a.Cfg.OwnerID, date)
				if err != nil {
					return err
				}
				if len(logs) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No food logged on %s\n", date)
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TIME\tMEAL\tFOOD\tSERVINGS\tKCAL\tSYNCED\tPUSHED\tID")
				for _, l := range logs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.0f\t%t\t%t\t%s\n",
						l.LoggedAt.Local().Format("15:04"), l.MealType, l.FoodName, l.Servings,
						l.Calories*l.Servings, l.Synced, l.Pushed, l.ID)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().String("date", "", "Date YYYY-MM-DD (default today, UTC)")
	return cmd
}
