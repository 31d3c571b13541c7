// Package config provides configuration loading for knowledged.
//
// Configuration is loaded from a YAML file with environment variable
// overrides. This package covers server, database, agent, and docgen
// settings.
package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/knowledged/internal/logging"
)

// Config holds the complete knowledged configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Agent    AgentConfig    `koanf:"agent"`
	Docgen   DocgenConfig   `koanf:"docgen"`
	Logging  logging.Config `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds the relational store configuration.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// AgentConfig holds external LLM agent configuration.
type AgentConfig struct {
	Model         string   `koanf:"model"`
	BaseURL       string   `koanf:"base_url"`
	APIKey        Secret   `koanf:"api_key"`
	MaxTokens     int      `koanf:"max_tokens"`
	MaxIterations int      `koanf:"max_iterations"`
	Timeout       Duration `koanf:"timeout"`
	MaxConcurrent int      `koanf:"max_concurrent"`
}

// DocgenConfig holds documentation-generation orchestration configuration.
type DocgenConfig struct {
	AuditDir  string `koanf:"audit_dir"`
	OutputDir string `koanf:"output_dir"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9180
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "knowledged.db"
	}

	if cfg.Agent.Model == "" {
		cfg.Agent.Model = "gpt-4o"
	}
	if cfg.Agent.MaxTokens == 0 {
		cfg.Agent.MaxTokens = 8192
	}
	if cfg.Agent.MaxIterations == 0 {
		cfg.Agent.MaxIterations = 50
	}
	if cfg.Agent.Timeout == 0 {
		cfg.Agent.Timeout = Duration(5 * time.Minute)
	}
	if cfg.Agent.MaxConcurrent == 0 {
		cfg.Agent.MaxConcurrent = 4
	}

	if cfg.Docgen.AuditDir == "" {
		cfg.Docgen.AuditDir = "logs/agent_responses"
	}
	if cfg.Docgen.OutputDir == "" {
		cfg.Docgen.OutputDir = "outputs"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Fields == nil {
		cfg.Logging.Fields = map[string]string{"service": "knowledged"}
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.http_port must be in range 1-65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Agent.Model == "" {
		return fmt.Errorf("agent.model is required")
	}
	if c.Agent.MaxConcurrent < 1 {
		return fmt.Errorf("agent.max_concurrent must be positive, got %d", c.Agent.MaxConcurrent)
	}
	if c.Agent.MaxIterations < 1 {
		return fmt.Errorf("agent.max_iterations must be positive, got %d", c.Agent.MaxIterations)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
