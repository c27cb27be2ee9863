package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var errToolFailed = errors.New("tool returned an error result")

func newCallCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "call <tool> [arguments]",
		Short: "Invoke one tool and print its result",
		Long: `Invoke a single tool against Cliniko without an MCP client. Arguments are
a JSON object, given inline or as "-" to read stdin.

Examples:
  mcp-cliniko call list_patients '{"q": "smith"}'
  echo '{"patient_id": 42}' | mcp-cliniko call get_patient -
  mcp-cliniko call list_invoices --json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := "{}"
			if len(args) == 2 {
				raw = args[1]
				if raw == "-" {
					b, err := io.ReadAll(cmd.InOrStdin())
					if err != nil {
						return fmt.Errorf("failed to read arguments: %w", err)
					}
					raw = string(b)
				}
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			res, err := a.dispatcher.CallTool(ctx, args[0], raw)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON && res.Data != nil {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res.Data); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out, res.Text())
			}
			if res.IsError {
				return errToolFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print structured data instead of text when available")
	return cmd
}
