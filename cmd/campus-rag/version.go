package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unirag/campus-rag/mcpserver"
)

// Set via -ldflags "-X main.version=...".
var version = mcpserver.Version

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	// Skip config loading.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mcpserver.Name, version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
