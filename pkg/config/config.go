// Package config loads feedback-engine configuration from config.yaml
// with environment variable overrides.
package config

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for feedback-engine.
// Environment variables always override YAML values. Secrets (PGPASSWORD,
// LLM_API_KEY) must only come from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	// MigrationsPath is the directory containing golang-migrate SQL files.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"feedback"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"feedback_engine"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
}

// URL builds a pgx-compatible connection string.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// LLMConfig holds endpoints and models for the completion and embedding services.
type LLMConfig struct {
	Endpoint       string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model          string `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o"`
	APIKey         string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	EmbeddingModel string `yaml:"embedding_model" env:"LLM_EMBEDDING_MODEL" env-default:"text-embedding-3-small"`
}

// PipelineConfig holds tuning for the polling scheduler and the
// feature-association agent.
type PipelineConfig struct {
	// StageDeadline bounds a single stage invocation. On expiry the stage
	// transaction is rolled back and the row stays eligible.
	StageDeadline time.Duration `yaml:"stage_deadline" env:"PIPELINE_STAGE_DEADLINE" env-default:"2m"`

	// IdleInterval is how long the scheduler sleeps after a pass in which
	// no stage found work.
	IdleInterval time.Duration `yaml:"idle_interval" env:"PIPELINE_IDLE_INTERVAL" env-default:"5s"`

	// AgentMaxSteps caps the feature-association tool-calling loop.
	AgentMaxSteps int `yaml:"agent_max_steps" env:"PIPELINE_AGENT_MAX_STEPS" env-default:"20"`

	// SearchTopK is the number of candidates feature_search returns.
	SearchTopK int `yaml:"search_top_k" env:"PIPELINE_SEARCH_TOP_K" env-default:"5"`

	// AgentUserIDStr identifies the pipeline as the creator of Feature and
	// Feedback rows.
	AgentUserIDStr string `yaml:"agent_user_id" env:"PIPELINE_AGENT_USER_ID" env-default:"00000000-0000-0000-0000-000000000001"`

	// AgentUserID is parsed from AgentUserIDStr at load time.
	AgentUserID uuid.UUID `yaml:"-"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	agentUserID, err := uuid.Parse(c.Pipeline.AgentUserIDStr)
	if err != nil {
		return fmt.Errorf("invalid pipeline agent_user_id %q: %w", c.Pipeline.AgentUserIDStr, err)
	}
	c.Pipeline.AgentUserID = agentUserID

	if c.Pipeline.StageDeadline <= 0 {
		return fmt.Errorf("pipeline stage_deadline must be positive, got %s", c.Pipeline.StageDeadline)
	}
	if c.Pipeline.IdleInterval <= 0 {
		return fmt.Errorf("pipeline idle_interval must be positive, got %s", c.Pipeline.IdleInterval)
	}
	if c.Pipeline.AgentMaxSteps < 1 {
		return fmt.Errorf("pipeline agent_max_steps must be at least 1, got %d", c.Pipeline.AgentMaxSteps)
	}
	if c.Pipeline.SearchTopK < 1 {
		return fmt.Errorf("pipeline search_top_k must be at least 1, got %d", c.Pipeline.SearchTopK)
	}
	return nil
}
