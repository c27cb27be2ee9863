package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/cliniko"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/mcp"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/tools"
)

// listOnlyKey satisfies the client constructor. Listing never calls the API.
const listOnlyKey = "list-only"

func newToolsCmd() *cobra.Command {
	var (
		search   string
		category string
	)
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the registered MCP tools",
		Long: `List every registered tool with its category. No API key is needed.

Examples:
  mcp-cliniko tools
  mcp-cliniko tools --category invoices
  mcp-cliniko tools --search reschedule`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := cliniko.NewClient(listOnlyKey)
			if err != nil {
				return err
			}
			reg, err := tools.Build(client, tools.Options{})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()

			if search != "" {
				for _, r := range reg.Search(search) {
					if category == "" || string(r.Tool.Category) == category {
						fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.Tool.Name, r.Tool.Category, r.Score, r.MatchReason)
					}
				}
				return nil
			}

			list := reg.Tools()
			if category != "" {
				list = reg.ListByCategory(mcp.ToolCategory(category))
			}
			for _, t := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, t.Category, firstLine(t.Description))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "rank tools against a query")
	cmd.Flags().StringVar(&category, "category", "", "only show tools in this category")
	return cmd
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
