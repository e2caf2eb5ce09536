package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cherryfit/cherryfit/internal/app"
	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/spf13/cobra"
)

func FoodsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "foods",
		Short: "Browse and manage the food catalog",
	}

	cmd.AddCommand(foodsAddCmd())
	cmd.AddCommand(foodsListCmd("recent", "Most used catalog items"))
	cmd.AddCommand(foodsListCmd("favorites", "Favorite catalog items"))
	cmd.AddCommand(foodsSearchCmd())
	cmd.AddCommand(foodsFavoriteCmd())
	return cmd
}

func foodsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Save a catalog item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			serving, _ := cmd.Flags().GetString("serving")
			input := model.FoodItemInput{
				Name:        args[0],
				Brand:       stringFlag(cmd, "brand"),
				Barcode:     stringFlag(cmd, "barcode"),
				Macros:      macrosFromFlags(cmd),
				ServingSize: serving,
			}
			return withAgent(cmd, func(ctx context.Context, a *app.Agent) error {
				item, err := a.FoodItems.Save(ctx, a.Cfg.OwnerID, input)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s: %s\nID: %s\n", item.Name, formatMacros(item.Macros), item.ID)
				return nil
			})
		},
	}

	cmd.Flags().String("brand", "", "Brand")
	cmd.Flags().String("barcode", "", "Barcode")
	cmd.Flags().String("serving", "", "Serving description")
	addMacroFlags(cmd)
	return cmd
}

func foodsListCmd(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return withAgent(cmd, func(ctx context.Context, a *app.Agent) error {
				var (
					items []*model.FoodItem
					err   error
				)
				if use == "favorites" {
					items, err = a.FoodItems.Favorites(ctx, a.Cfg.OwnerID)
				} else {
					items, err = a.FoodItems.Recent(ctx, a.Cfg.OwnerID, limit)
				}
				if err != nil {
					return err
				}
				return printItems(cmd.OutOrStdout(), items)
			})
		},
	}

	if use == "recent" {
		cmd.Flags().Int("limit", 20, "Maximum items to show")
	}
	return cmd
}

func foodsSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search catalog items by name or brand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAgent(cmd, func(ctx context.Context, a *app.Agent) error {
				items, err := a.FoodItems.Search(ctx, a.Cfg.OwnerID, args[0])
				if err != nil {
					return err
				}
				return printItems(cmd.OutOrStdout(), items)
			})
		},
	}
}

func foodsFavoriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorite <id>",
		Short: "Mark a catalog item as favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			off, _ := cmd.Flags().GetBool("off")
			return withAgent(cmd, func(ctx context.Context, a *app.Agent) error {
				if err := a.FoodItems.ToggleFavorite(ctx, a.Cfg.OwnerID, args[0], !off); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Favorite %s: %t\n", args[0], !off)
				return nil
			})
		},
	}

	cmd.Flags().Bool("off", false, "Remove the favorite mark instead")
	return cmd
}

func printItems(out io.Writer, items []*model.FoodItem) error {
	if len(items) == 0 {
		fmt.Fprintln(out, "No items")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSERVING\tKCAL\tUSES\tFAV\tID")
	for _, it := range items {
		name := it.Name
		if it.Brand != nil && *it.Brand != "" {
			name += " (" + *it.Brand + ")"
		}
		fmt.Fprintf(w, "%s\t%s\t%.0f\t%d\t%t\t%s\n", name, it.ServingSize, it.Calories, it.UseCount, it.IsFavorite, it.ID)
	}
	return w.Flush()
}
