package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for plancost-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys, database password) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Extraction source configuration
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Anthropic AnthropicConfig `yaml:"anthropic"`

	// Estimate defaults
	Estimate EstimateConfig `yaml:"estimate"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"plancost"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"plancost_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// OpenAIConfig holds the OpenAI extraction source configuration.
type OpenAIConfig struct {
	APIKey   string `yaml:"-" env:"OPENAI_API_KEY"` // Secret - not in YAML
	Model    string `yaml:"model" env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
	Endpoint string `yaml:"endpoint" env:"OPENAI_ENDPOINT" env-default:""`
}

// IsAvailable returns true if the OpenAI source is configured.
func (c *OpenAIConfig) IsAvailable() bool {
	return c.APIKey != ""
}

// AnthropicConfig holds the Anthropic extraction source configuration.
type AnthropicConfig struct {
	APIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"` // Secret - not in YAML
	Model  string `yaml:"model" env:"ANTHROPIC_MODEL" env-default:"claude-sonnet-4-20250514"`
}

// IsAvailable returns true if the Anthropic source is configured.
func (c *AnthropicConfig) IsAvailable() bool {
	return c.APIKey != ""
}

// EstimateConfig holds overhead/profit defaults applied when a caller does
// not supply explicit percentages.
type EstimateConfig struct {
	OverheadPct float64 `yaml:"overhead_pct" env:"ESTIMATE_OVERHEAD_PCT" env-default:"10"`
	ProfitPct   float64 `yaml:"profit_pct" env:"ESTIMATE_PROFIT_PCT" env-default:"10"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if cfg.Estimate.OverheadPct < 0 || cfg.Estimate.ProfitPct < 0 {
		return nil, fmt.Errorf("estimate percentages must be non-negative")
	}

	return cfg, nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
