package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Model.Region != "ap-northeast-1" {
		t.Errorf("model.region = %q", cfg.Model.Region)
	}
	if cfg.Model.MaxTokens != 4096 {
		t.Errorf("model.max_tokens = %d, want 4096", cfg.Model.MaxTokens)
	}
	if cfg.Memory.MemoryID == "" || cfg.Memory.Path == "" {
		t.Error("memory defaults must be populated")
	}
	if cfg.Gateway.Enabled {
		t.Error("gateway must be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port",
		},
		{
			name:    "missing model id",
			mutate:  func(c *Config) { c.Model.ModelID = "" },
			wantErr: "model.model_id",
		},
		{
			name:    "auth without secret",
			mutate:  func(c *Config) { c.Auth.Enabled = true },
			wantErr: "jwt_secret",
		},
		{
			name:    "gateway without url",
			mutate:  func(c *Config) { c.Gateway.Enabled = true },
			wantErr: "url is required",
		},
		{
			name: "gateway oauth without credentials",
			mutate: func(c *Config) {
				c.Gateway.Enabled = true
				c.Gateway.URL = "https://gateway.example.com/mcp"
				c.Gateway.TokenURL = "https://auth.example.com/token"
			},
			wantErr: "client_id",
		},
		{
			name: "job without schedule",
			mutate: func(c *Config) {
				c.Jobs.Enabled = true
				c.Jobs.Jobs = []JobConfig{{Name: "digest", Prompt: "summarize"}}
			},
			wantErr: "schedule is required",
		},
		{
			name: "job without prompt",
			mutate: func(c *Config) {
				c.Jobs.Enabled = true
				c.Jobs.Jobs = []JobConfig{{Name: "digest", Schedule: "0 9 * * *"}}
			},
			wantErr: "prompt is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tonari.yaml")
	data := `
server:
  port: 9090
model:
  model_id: test-model
  system_prompt: "You are a helpful assistant."
memory:
  history_limit: 20
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Model.ModelID != "test-model" {
		t.Errorf("model.model_id = %q", cfg.Model.ModelID)
	}
	if cfg.Memory.HistoryLimit != 20 {
		t.Errorf("memory.history_limit = %d, want 20", cfg.Memory.HistoryLimit)
	}
	// Unset fields keep their defaults.
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("shutdown_timeout = %v, want default", cfg.Server.ShutdownTimeout)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_MODEL_ID", "env-model")
	path := filepath.Join(t.TempDir(), "tonari.yaml")
	data := "model:\n  model_id: ${TEST_MODEL_ID}\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model.ModelID != "env-model" {
		t.Errorf("model.model_id = %q, want env-model", cfg.Model.ModelID)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("AGENTCORE_GATEWAY_URL", "https://gateway.example.com/mcp")
	t.Setenv("BEDROCK_MODEL_ID", "override-model")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Gateway.Enabled {
		t.Error("gateway URL in the environment must enable the gateway")
	}
	if cfg.Gateway.URL != "https://gateway.example.com/mcp" {
		t.Errorf("gateway.url = %q", cfg.Gateway.URL)
	}
	if cfg.Model.ModelID != "override-model" {
		t.Errorf("model.model_id = %q, want override-model", cfg.Model.ModelID)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
