package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/kdbai-mcp/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kdbai-mcp",
		Short:         "MCP server for KDB.AI query, similarity search and hybrid search",
		SilenceUsage:  true,
	}
	root.PersistentFlags().String("config", "", "path to a config file (default: config/<ENV>.yaml)")

	root.AddCommand(newServeCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kdbai-mcp %s (commit %s, built %s)\n",
				version.Version, version.Commit, version.Date)
		},
	}
}
