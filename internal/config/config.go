// Package config loads analyzer settings from an optional config.yaml and
// the process environment. Environment values win over the file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/domain"
)

// DefaultModels is the candidate list used when none is configured.
const DefaultModels = "gemini-2.0-flash-lite,gemini-2.0-flash,gemini-2.5-flash-lite,gemini-flash-lite-latest"

// DefaultFile is the config file read when Load is given an empty path.
const DefaultFile = "config.yaml"

type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Gemini      GeminiConfig      `koanf:"gemini"`
	Log         LogConfig         `koanf:"log"`
	Tracing     TracingConfig     `koanf:"tracing"`
	Diagnostics DiagnosticsConfig `koanf:"diagnostics"`
	Limits      LimitsConfig      `koanf:"limits"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

type GeminiConfig struct {
	APIKey string `koanf:"api_key"`
	// Model, when set, replaces Models entirely.
	Model          string `koanf:"model"`
	Models         string `koanf:"models"` // comma separated, in fallback order
	TimeoutSeconds int    `koanf:"timeout_seconds"`
	MaxRetries     int    `koanf:"max_retries"`
	BaseURL        string `koanf:"base_url"`
}

type LogConfig struct {
	Level string `koanf:"level"` // debug, info, warn, error
}

type TracingConfig struct {
	Enabled bool `koanf:"enabled"`
}

type DiagnosticsConfig struct {
	Store      string `koanf:"store"` // memory, sqlite, none
	SQLitePath string `koanf:"sqlite_path"`
	Capacity   int    `koanf:"capacity"`
}

type LimitsConfig struct {
	// MaxConversationTokens rejects larger conversations; 0 disables the check.
	MaxConversationTokens int `koanf:"max_conversation_tokens"`
}

// envKeys maps the recognised environment variables to config keys.
var envKeys = map[string]string{
	"GOOGLE_API_KEY":          "gemini.api_key",
	"GEMINI_MODEL":            "gemini.model",
	"GEMINI_MODELS":           "gemini.models",
	"GEMINI_TIMEOUT_SECONDS":  "gemini.timeout_seconds",
	"GEMINI_MAX_RETRIES":      "gemini.max_retries",
	"GEMINI_BASE_URL":         "gemini.base_url",
	"HOST":                    "server.host",
	"PORT":                    "server.port",
	"LOG_LEVEL":               "log.level",
	"TRACING_ENABLED":         "tracing.enabled",
	"DIAGNOSTICS_STORE":       "diagnostics.store",
	"DIAGNOSTICS_SQLITE_PATH": "diagnostics.sqlite_path",
	"DIAGNOSTICS_CAPACITY":    "diagnostics.capacity",
	"MAX_CONVERSATION_TOKENS": "limits.max_conversation_tokens",
}

var defaults = map[string]any{
	"server.host":             "127.0.0.1",
	"server.port":             8000,
	"gemini.models":           DefaultModels,
	"gemini.timeout_seconds":  25,
	"gemini.max_retries":      1,
	"log.level":               "info",
	"diagnostics.store":       "memory",
	"diagnostics.sqlite_path": "diagnostics.db",
	"diagnostics.capacity":    500,
}

// Load reads path (DefaultFile when empty; a missing file is not an error)
// and then the environment.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFile
	}
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	// Load environment variables (can override file config). Blank values
	// are treated as unset.
	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, any) {
		if strings.TrimSpace(value) == "" {
			return "", nil
		}
		return envKeys[key], value
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	cfg.Gemini.APIKey = StripKey(cfg.Gemini.APIKey)
	cfg.Gemini.Model = StripKey(cfg.Gemini.Model)
	cfg.Gemini.Models = StripKey(cfg.Gemini.Models)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	switch c.Diagnostics.Store {
	case "memory", "sqlite", "none":
	default:
		return fmt.Errorf("diagnostics.store must be memory, sqlite or none, got %q", c.Diagnostics.Store)
	}
	if c.Gemini.TimeoutSeconds <= 0 {
		return fmt.Errorf("gemini.timeout_seconds must be positive, got %d", c.Gemini.TimeoutSeconds)
	}
	if c.Gemini.MaxRetries < 0 {
		return fmt.Errorf("gemini.max_retries must not be negative, got %d", c.Gemini.MaxRetries)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// Configured reports whether a model API key is present.
func (c *Config) Configured() bool {
	return c.Gemini.APIKey != ""
}

// Candidates returns the ordered, de-duplicated model candidates. A single
// Model overrides the Models list; a blank list falls back to DefaultModels.
func (c *Config) Candidates() []string {
	raw := c.Gemini.Model
	if raw == "" {
		raw = c.Gemini.Models
	}
	if strings.TrimSpace(raw) == "" {
		raw = DefaultModels
	}
	return domain.DedupeCandidates(strings.Split(raw, ","))
}

// PrimaryModel is the first candidate.
func (c *Config) PrimaryModel() string {
	if cands := c.Candidates(); len(cands) > 0 {
		return cands[0]
	}
	return ""
}

// Timeout is the per-attempt model call timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Gemini.TimeoutSeconds) * time.Second
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// MaskedAPIKey shows only the last four characters of the key.
func (c *Config) MaskedAPIKey() string {
	key := c.Gemini.APIKey
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

// StripKey trims whitespace and one pair of matching surrounding quotes, as
// left behind by some .env editors.
func StripKey(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= 2 && value[0] == value[len(value)-1] && (value[0] == '"' || value[0] == '\'') {
		value = value[1 : len(value)-1]
	}
	return strings.TrimSpace(value)
}
