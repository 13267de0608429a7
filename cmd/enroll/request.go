package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/enroll"
	"github.com/spf13/cobra"
)

var requestCmd = &cobra.Command{
	Use:   "request [file]",
	Short: "Execute a single JSON request",
	Long: `Reads one request ({"operation": ..., "product_id": ..., "consumer": ..., "params": ...})
from the file, or from stdin when no file is given, and prints the JSON result.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		in := cmd.InOrStdin()
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		var req enroll.Request
		if err := json.NewDecoder(io.LimitReader(in, cfg.MaxInputSize)).Decode(&req); err != nil {
			return fmt.Errorf("invalid request: %w", err)
		}

		stack, err := buildStack(cfg)
		if err != nil {
			return err
		}
		defer stack.Close()

		out, err := stack.Engine.Dispatch(cmd.Context(), req)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(requestCmd)
}
