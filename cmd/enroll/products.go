package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/aretw0/enroll/pkg/catalog"
	"github.com/aretw0/enroll/pkg/domain"
	"github.com/spf13/cobra"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List catalog products",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		stack, err := buildStack(cfg)
		if err != nil {
			return err
		}
		defer stack.Close()

		category, _ := cmd.Flags().GetString("category")
		provider, _ := cmd.Flags().GetString("provider")
		all, _ := cmd.Flags().GetBool("all")
		asJSON, _ := cmd.Flags().GetBool("json")

		products := stack.Engine.Search(catalog.Filter{
			Category:   domain.Category(category),
			ProviderID: provider,
			ActiveOnly: !all,
		})

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(products)
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPROVIDER\tACTIVE")
		for _, p := range products {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", p.ID, p.Name, p.Category, p.ProviderID, p.Active)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(productsCmd)

	productsCmd.Flags().String("category", "", "Only products of this category")
	productsCmd.Flags().String("provider", "", "Only products served by this provider")
	productsCmd.Flags().Bool("all", false, "Include inactive products")
	productsCmd.Flags().Bool("json", false, "Print JSON instead of a table")
}
