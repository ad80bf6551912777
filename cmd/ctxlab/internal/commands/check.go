package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewCheckCommand() *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that the configured LLM backend is available",
		Long: `Probe the configured LLM backend and exit 0 when it responds.

For Ollama this lists the installed models; for Anthropic it sends a
minimal single-token request.`,
		Example: `  # Check the default local Ollama backend
  ctxlab check

  # Check the backend named in a config file
  ctxlab check --config ctxlab.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if err := setupLogging(cfg.Logging, verbose); err != nil {
				return err
			}

			client, err := buildClient(cfg.LLM)
			if err != nil {
				return err
			}
			if !client.CheckAvailability(cmd.Context()) {
				return backendUnavailable(cfg.LLM)
			}

			fmt.Printf("✓ %s is available and responding (model: %s)\n", cfg.LLM.Provider, client.Model())
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	return cmd
}
