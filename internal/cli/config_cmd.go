package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/config"
)

// effectiveConfig is the printable view of the loaded settings.
type effectiveConfig struct {
	Addr                  string   `yaml:"addr"`
	APIKey                string   `yaml:"api_key"`
	Models                []string `yaml:"models"`
	TimeoutSeconds        int      `yaml:"timeout_seconds"`
	MaxRetries            int      `yaml:"max_retries"`
	BaseURL               string   `yaml:"base_url,omitempty"`
	LogLevel              string   `yaml:"log_level"`
	Tracing               bool     `yaml:"tracing"`
	DiagnosticsStore      string   `yaml:"diagnostics_store"`
	DiagnosticsSQLitePath string   `yaml:"diagnostics_sqlite_path,omitempty"`
	MaxConversationTokens int      `yaml:"max_conversation_tokens"`
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration (API key masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		view := effectiveConfig{
			Addr:                  cfg.Addr(),
			APIKey:                cfg.MaskedAPIKey(),
			Models:                cfg.Candidates(),
			TimeoutSeconds:        cfg.Gemini.TimeoutSeconds,
			MaxRetries:            cfg.Gemini.MaxRetries,
			BaseURL:               cfg.Gemini.BaseURL,
			LogLevel:              strings.ToLower(cfg.Log.Level),
			Tracing:               cfg.Tracing.Enabled,
			DiagnosticsStore:      cfg.Diagnostics.Store,
			MaxConversationTokens: cfg.Limits.MaxConversationTokens,
		}
		if cfg.Diagnostics.Store == "sqlite" {
			view.DiagnosticsSQLitePath = cfg.Diagnostics.SQLitePath
		}

		data, err := yaml.Marshal(view)
		if err != nil {
			return fmt.Errorf("marshalling config: %w", err)
		}
		cmd.Print(string(data))
		return nil
	},
}
