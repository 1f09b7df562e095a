package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML configuration file, expands ${ENV} references, applies
// defaults for unset fields, and validates the result. An empty path returns
// the defaults (environment-only operation).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides maps well-known environment variables onto the config.
// These match the variables the managed runtime injects.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Model.Region = v
	}
	if v := os.Getenv("BEDROCK_MODEL_ID"); v != "" {
		cfg.Model.ModelID = v
	}
	if v := os.Getenv("AGENTCORE_MEMORY_ID"); v != "" {
		cfg.Memory.MemoryID = v
	}
	if v := os.Getenv("AGENTCORE_GATEWAY_URL"); v != "" {
		cfg.Gateway.URL = v
		cfg.Gateway.Enabled = true
	}
	if v := os.Getenv("TONARI_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
}
