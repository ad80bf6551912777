package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/contextwindows/ctxlab/cmd/ctxlab/internal/commands"
)

var rootCmd = &cobra.Command{
	Use:   "ctxlab",
	Short: "Context Windows Lab - LLM context management experiments",
	Long: `A command-line interface for running controlled experiments on LLM
context-window behavior: needle-in-haystack retrieval, context size impact,
full-context vs RAG comparison, and context engineering strategies
(SELECT / COMPRESS / WRITE).

Each run produces JSON results and PNG visualizations under the output
directory, one subdirectory per experiment.`,
	Version: "0.1.0",
}

func main() {
	// Pick up ANTHROPIC_API_KEY and friends from a local .env when present.
	_ = godotenv.Load()

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewCheckCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
