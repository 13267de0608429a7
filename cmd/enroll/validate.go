package main

import (
	"fmt"

	"github.com/aretw0/enroll/internal/cli"
	"github.com/aretw0/enroll/internal/logging"
	"github.com/aretw0/enroll/pkg/catalog"
	"github.com/aretw0/enroll/pkg/domain"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the product catalog and provider configuration",
	Long: `Loads every product and provider definition and reports each rejected one.
Exits non-zero when anything was rejected.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		cat, providers, problems := cli.LoadDefinitions(cfg, logging.NewNop())

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d products, %d providers\n", len(cat.Search(catalog.Filter{})), len(providers.IDs()))

		errs := domain.Errors(problems)
		if len(errs) == 0 {
			fmt.Fprintln(out, "Definitions are valid! ✅")
			return nil
		}
		for _, e := range errs {
			fmt.Fprintf(out, "  - %s\n", e)
		}
		return fmt.Errorf("validation failed: %d problem(s)", len(errs))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
