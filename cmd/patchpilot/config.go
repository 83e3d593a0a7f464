package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/patchpilot/patchpilot/internal/config"
	"github.com/patchpilot/patchpilot/pkg/models"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show resolved configuration",
	Long: `Display the effective configuration after merging defaults,
the user config, the project config, and environment overrides.

Configuration is stored at ~/.config/patchpilot/config.yaml
Project-specific overrides can be placed in .patchpilot.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		displayConfig(cfg)
	},
}

// displayConfig prints all configuration values.
func displayConfig(cfg *config.Config) {
	// Mask API key if set
	apiKeyDisplay := "(not set)"
	if cfg.OpenAI.APIKey != "" {
		apiKeyDisplay = "****"
	}

	fmt.Printf("openai.api_key: %s\n", apiKeyDisplay)
	fmt.Printf("openai.base_url: %s\n", orDefault(cfg.OpenAI.BaseURL, "(default)"))
	fmt.Printf("openai.temperature: %g\n", cfg.OpenAI.Temperature)
	fmt.Printf("openai.max_tokens: %d\n", cfg.OpenAI.MaxTokens)
	for _, tier := range models.TierOrder {
		tc := cfg.TierFor(tier)
		fmt.Printf("tiers.%s.model: %s\n", tier, tc.Model)
		fmt.Printf("tiers.%s.max_concurrent: %d\n", tier, tc.MaxConcurrent)
	}
	fmt.Printf("limits.max_attempts: %d\n", cfg.Limits.MaxAttempts)
	fmt.Printf("limits.max_patch_lines: %d\n", cfg.Limits.MaxPatchLines)
	fmt.Printf("verify.commands: %s\n", strings.Join(cfg.Verify.Commands, ", "))
	fmt.Printf("verify.timeout: %s\n", cfg.Verify.Timeout)
	fmt.Printf("events.sqlite: %t\n", cfg.Events.SQLite)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
