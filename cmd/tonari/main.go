// Package main provides the CLI entry point for the tonari conversational
// assistant runtime.
//
// Start the server:
//
//	tonari serve --config tonari.yaml
//
// Configuration can also come from environment variables (AWS_REGION,
// BEDROCK_MODEL_ID, AGENTCORE_MEMORY_ID, AGENTCORE_GATEWAY_URL,
// TONARI_JWT_SECRET).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build information - populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	root := &cobra.Command{
		Use:          "tonari",
		Short:        "Conversational assistant runtime",
		SilenceUsage: true,
	}

	root.AddCommand(newServeCommand())
	root.AddCommand(newVersionCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tonari %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
