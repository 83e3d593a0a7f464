// Package config handles configuration loading and management for
// patchpilot. It supports XDG config paths, project-level overrides,
// and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/patchpilot/patchpilot/pkg/models"
)

// Config holds all configuration for patchpilot.
type Config struct {
	OpenAI OpenAIConfig          `mapstructure:"openai"`
	Tiers  map[string]TierConfig `mapstructure:"tiers"`
	Limits LimitsConfig          `mapstructure:"limits"`
	Verify VerifyConfig          `mapstructure:"verify"`
	Events EventsConfig          `mapstructure:"events"`
}

// OpenAIConfig holds backend endpoint settings. Any OpenAI-compatible
// endpoint is accepted via base_url.
type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// TierConfig holds the two constants attached to each tier: the model
// to invoke and the in-flight attempt cap.
type TierConfig struct {
	// Model is the model identifier sent to the backend.
	Model string `mapstructure:"model"`
	// MaxConcurrent bounds simultaneous in-flight attempts at this tier.
	MaxConcurrent int `mapstructure:"max_concurrent"`
}

// LimitsConfig holds the attempt and patch-size budgets.
type LimitsConfig struct {
	// MaxAttempts is the global attempt budget per task.
	MaxAttempts int `mapstructure:"max_attempts"`
	// MaxPatchLines caps changed lines per patch.
	MaxPatchLines int `mapstructure:"max_patch_lines"`
}

// VerifyConfig holds the verification suite settings.
type VerifyConfig struct {
	// Commands run sequentially against the workspace.
	Commands []string `mapstructure:"commands"`
	// Timeout bounds each individual command.
	Timeout time.Duration `mapstructure:"timeout"`
}

// EventsConfig holds event sink settings.
type EventsConfig struct {
	// SQLite enables the persistent event trail under
	// .patchpilot/events.db in the workspace.
	SQLite bool `mapstructure:"sqlite"`
}

// TierFor returns the configured tier settings, falling back to the
// built-in defaults for tiers left out of the config file.
func (c *Config) TierFor(tier models.Tier) TierConfig {
	if tc, ok := c.Tiers[string(tier)]; ok {
		return tc
	}
	return Default().Tiers[string(tier)]
}

// GateCapacities returns the per-tier concurrency caps keyed by tier.
func (c *Config) GateCapacities() map[models.Tier]int {
	caps := make(map[models.Tier]int, len(models.TierOrder))
	for _, tier := range models.TierOrder {
		caps[tier] = c.TierFor(tier).MaxConcurrent
	}
	return caps
}

// Load loads configuration from XDG paths, project overrides, and
// environment variables. Precedence (highest to lowest):
// 1. Environment variables (OPENAI_API_KEY, PATCHPILOT_BASE_URL)
// 2. Project config (.patchpilot.yaml in current directory or parent)
// 3. User config (~/.config/patchpilot/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("openai.base_url", "PATCHPILOT_BASE_URL")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.OpenAI.APIKey = os.ExpandEnv(cfg.OpenAI.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific file (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.OpenAI.APIKey = os.ExpandEnv(cfg.OpenAI.APIKey)

	return cfg, nil
}

// setDefaults configures the built-in defaults.
func setDefaults(v *viper.Viper) {
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.temperature", 0.2)
	v.SetDefault("openai.max_tokens", 4096)

	v.SetDefault("tiers.fast.model", "gpt-4o-mini")
	v.SetDefault("tiers.fast.max_concurrent", 4)
	v.SetDefault("tiers.deep.model", "gpt-4o")
	v.SetDefault("tiers.deep.max_concurrent", 1)
	v.SetDefault("tiers.reviewer.model", "o1")
	v.SetDefault("tiers.reviewer.max_concurrent", 2)

	v.SetDefault("limits.max_attempts", 5)
	v.SetDefault("limits.max_patch_lines", 300)

	v.SetDefault("verify.commands", []string{"npm run typecheck", "npm run lint", "npm run build"})
	v.SetDefault("verify.timeout", "60s")

	v.SetDefault("events.sqlite", false)
}

// getUserConfigDir returns the XDG config directory for patchpilot.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "patchpilot")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "patchpilot")
	}
	return filepath.Join(home, ".config", "patchpilot")
}

// findProjectConfig searches for .patchpilot.yaml in the current
// directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".patchpilot.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with the built-in default values.
func Default() *Config {
	return &Config{
		OpenAI: OpenAIConfig{
			Temperature: 0.2,
			MaxTokens:   4096,
		},
		Tiers: map[string]TierConfig{
			"fast":     {Model: "gpt-4o-mini", MaxConcurrent: 4},
			"deep":     {Model: "gpt-4o", MaxConcurrent: 1},
			"reviewer": {Model: "o1", MaxConcurrent: 2},
		},
		Limits: LimitsConfig{
			MaxAttempts:   5,
			MaxPatchLines: 300,
		},
		Verify: VerifyConfig{
			Commands: []string{"npm run typecheck", "npm run lint", "npm run build"},
			Timeout:  60 * time.Second,
		},
		Events: EventsConfig{
			SQLite: false,
		},
	}
}
