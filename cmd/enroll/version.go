package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/enroll"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of enroll",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "enroll version %s\n", strings.TrimSpace(enroll.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
