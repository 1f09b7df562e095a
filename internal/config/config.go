// Package config loads and validates the tonari runtime configuration.
package config

import (
	"fmt"
	"time"
)

// Config is the top-level configuration structure.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Model   ModelConfig   `yaml:"model"`
	Gateway GatewayConfig `yaml:"gateway"`
	Memory  MemoryConfig  `yaml:"memory"`
	Jobs    JobsConfig    `yaml:"jobs"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP entrypoint.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AuthConfig gates bearer-token authentication on the invocation endpoint.
type AuthConfig struct {
	Enabled   bool   `yaml:"enabled"`
	JWTSecret string `yaml:"jwt_secret"`
}

// ModelConfig configures the inference backend.
type ModelConfig struct {
	Region          string `yaml:"region"`
	ModelID         string `yaml:"model_id"`
	MaxTokens       int    `yaml:"max_tokens"`
	SystemPrompt    string `yaml:"system_prompt"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
}

// GatewayConfig configures the external tool-calling gateway.
type GatewayConfig struct {
	Enabled      bool          `yaml:"enabled"`
	URL          string        `yaml:"url"`
	TokenURL     string        `yaml:"token_url"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	Scopes       []string      `yaml:"scopes"`
	Timeout      time.Duration `yaml:"timeout"`
}

// MemoryConfig configures the conversation memory store.
type MemoryConfig struct {
	MemoryID string `yaml:"memory_id"`
	Path     string `yaml:"path"`

	// HistoryLimit caps how many prior turns are replayed into the model
	// request. Zero uses the built-in default.
	HistoryLimit int `yaml:"history_limit"`
}

// JobsConfig configures scheduled prompts that run through the same
// invocation pipeline as interactive turns.
type JobsConfig struct {
	Enabled bool        `yaml:"enabled"`
	Jobs    []JobConfig `yaml:"jobs"`
}

// JobConfig is one scheduled prompt.
type JobConfig struct {
	Name      string `yaml:"name"`
	Schedule  string `yaml:"schedule"`
	Prompt    string `yaml:"prompt"`
	SessionID string `yaml:"session_id"`
	ActorID   string `yaml:"actor_id"`
}

// LoggingConfig configures structured logging output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration populated with built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Model: ModelConfig{
			Region:    "ap-northeast-1",
			ModelID:   "jp.anthropic.claude-haiku-4-5-20251001-v1:0",
			MaxTokens: 4096,
		},
		Gateway: GatewayConfig{
			Timeout: 30 * time.Second,
		},
		Memory: MemoryConfig{
			MemoryID: "tonari-memory",
			Path:     "tonari.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Model.ModelID == "" {
		return fmt.Errorf("model.model_id is required")
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required when auth is enabled")
	}
	if c.Gateway.Enabled {
		if err := c.Gateway.validate(); err != nil {
			return fmt.Errorf("gateway: %w", err)
		}
	}
	if c.Jobs.Enabled {
		for i, job := range c.Jobs.Jobs {
			if job.Schedule == "" {
				return fmt.Errorf("jobs[%d]: schedule is required", i)
			}
			if job.Prompt == "" {
				return fmt.Errorf("jobs[%d]: prompt is required", i)
			}
		}
	}
	return nil
}

func (g *GatewayConfig) validate() error {
	if g.URL == "" {
		return fmt.Errorf("url is required")
	}
	if g.TokenURL != "" && (g.ClientID == "" || g.ClientSecret == "") {
		return fmt.Errorf("client_id and client_secret are required with token_url")
	}
	return nil
}
