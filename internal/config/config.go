// Package config loads schemabridge configuration from YAML with
// environment overrides. The engine never reads the environment; reasoning
// provider selection happens here, at the boundary, and the orchestrator
// receives an explicit provider (or none).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProviderKind selects the reasoning-service backend.
type ProviderKind string

const (
	ProviderNone      ProviderKind = ""
	ProviderGemini    ProviderKind = "gemini"
	ProviderAnthropic ProviderKind = "anthropic"
)

// Config holds all schemabridge configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Provider ProviderConfig `yaml:"provider"`
	Store    StoreConfig    `yaml:"store"`
	Export   ExportConfig   `yaml:"export"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ProviderConfig configures the optional reasoning service. An empty kind
// means the pipeline runs purely heuristic.
type ProviderConfig struct {
	Kind   ProviderKind `yaml:"kind"`
	APIKey string       `yaml:"api_key"`
	Model  string       `yaml:"model"`
}

// StoreConfig configures run persistence.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ExportConfig configures mapping exports.
type ExportConfig struct {
	Directory string `yaml:"directory"`
	Format    string `yaml:"format"` // json, csv
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "schemabridge",
		Version: "1.0.0",

		Store: StoreConfig{
			DatabasePath: "data/schemabridge.db",
		},
		Export: ExportConfig{
			Directory: "exports",
			Format:    "json",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults when
// the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := cfg.ApplyEnvOverrides(); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides. Provider keys
// are mutually exclusive: configuring both Gemini and Anthropic in the
// environment is an error rather than a silent priority pick.
func (c *Config) ApplyEnvOverrides() error {
	gemini := os.Getenv("GEMINI_API_KEY")
	anthropic := os.Getenv("ANTHROPIC_API_KEY")
	if gemini != "" && anthropic != "" {
		return fmt.Errorf("both GEMINI_API_KEY and ANTHROPIC_API_KEY set; configure exactly one reasoning provider")
	}
	if gemini != "" {
		c.Provider.Kind = ProviderGemini
		c.Provider.APIKey = gemini
	}
	if anthropic != "" {
		c.Provider.Kind = ProviderAnthropic
		c.Provider.APIKey = anthropic
	}
	if path := os.Getenv("SCHEMABRIDGE_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if dir := os.Getenv("SCHEMABRIDGE_EXPORT_DIR"); dir != "" {
		c.Export.Directory = dir
	}
	return nil
}

// Validate checks internal consistency beyond what YAML parsing enforces.
func (c *Config) Validate() error {
	switch c.Provider.Kind {
	case ProviderNone, ProviderGemini, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown provider kind %q", c.Provider.Kind)
	}
	if c.Provider.Kind != ProviderNone && c.Provider.APIKey == "" {
		return fmt.Errorf("provider %q configured without an api key", c.Provider.Kind)
	}
	switch c.Export.Format {
	case "", "json", "csv":
	default:
		return fmt.Errorf("unknown export format %q", c.Export.Format)
	}
	return nil
}
