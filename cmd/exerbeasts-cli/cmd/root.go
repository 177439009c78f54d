package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the exerbeasts-cli command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "exerbeasts-cli",
		Short: "ExerBeasts developer tool",
		Long: `exerbeasts-cli inspects and exercises an ExerBeasts installation.

Available commands:
  topics     Explore the bus topics modules publish and consume
  catalog    Show or validate a move catalog
  simulate   Play a headless battle with a scripted strategy

Use "exerbeasts-cli [command] --help" for more information about a command.`,
		SilenceUsage: true,
	}
	root.AddCommand(
		newVersionCmd(),
		newTopicsCmd(),
		newCatalogCmd(),
		newSimulateCmd(),
	)
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
