package cmd

import (
	"context"
	"fmt"

	"github.com/cherryfit/cherryfit/internal/app"
	"github.com/spf13/cobra"
)

func BarcodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "barcode <code>",
		Short: "Look up a product by barcode",
		Long:  "Checks the local catalog first, then asks the relay's product database.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			save, _ := cmd.Flags().GetBool("save")
			return withAgent(cmd, func(ctx context.Context, a *app.Agent) error {
				product, err := a.BarcodeService.Lookup(ctx, a.Cfg.OwnerID, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if product == nil {
					fmt.Fprintf(out, "No product found for %s\n", args[0])
					return nil
				}

				where := "product database"
				if product.FromCatalog {
					where = "local catalog"
				}
				fmt.Fprintf(out, "%s (%s)\n", product.FoodName, where)
				fmt.Fprintf(out, "Serving: %s\n", product.ServingSize)
				fmt.Fprintf(out, "Nutrition: %s\n", formatMacros(product.Macros))
				if product.SodiumMg != nil {
					fmt.Fprintf(out, "Sodium: %.0fmg\n", *product.SodiumMg)
				}

				if save && !product.FromCatalog {
					item, err := a.BarcodeService.Remember(ctx, a.Cfg.OwnerID, product)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Saved to catalog as %s\n", item.ID)
				}
				return nil
			})
		},
	}

	cmd.Flags().Bool("save", false, "Save a product found upstream to the local catalog")
	return cmd
}
