// Package main is the entry point for the explorer CLI: search through a
// running article-explorer server, format citations and export notes from
// saved files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultServerURL = "http://localhost:8080"

// Output formats for structured command output.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "explorer",
		Short: "Search research articles, format citations and export notes",
		Long: `explorer is the command-line companion of the article-explorer server.

search sends queries through the server's search proxy, so the provider API key
never leaves the server. cite and export work offline on article and annotation
files saved from the session API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("output", "o", outputText, "output format: text, json or yaml")

	root.AddCommand(
		newSearchCmd(),
		newCiteCmd(),
		newStylesCmd(),
		newExportCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
