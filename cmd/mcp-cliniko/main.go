// Command mcp-cliniko serves the Cliniko practice-management API as MCP
// tools and resources over stdio.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/config"
)

// Set via -ldflags at build time.
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var configPath string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			fmt.Fprintln(os.Stderr, "Error: CLINIKO_API_KEY environment variable is required")
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mcp-cliniko",
		Short: "MCP server for the Cliniko practice management API",
		Long: `mcp-cliniko exposes Cliniko patients, appointments, invoices and billing
as MCP tools and resources. By default it serves the protocol on stdio.

The Cliniko API key is read from CLINIKO_API_KEY. Other settings come from
~/.config/mcp-cliniko/config.yaml and SECTION_FIELD environment variables.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), serveOptions{})
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.config/mcp-cliniko/config.yaml)")

	root.AddCommand(newServeCmd(), newToolsCmd(), newCallCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mcp-cliniko %s\n", version)
			fmt.Fprintf(out, "Git Commit: %s\n", gitCommit)
			fmt.Fprintf(out, "Build Date: %s\n", buildDate)
		},
	}
}

func loadConfig() (*config.Config, error) {
	return config.LoadWithFile(configPath)
}
