// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, and duration parsing

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
backend:
  url: "http://localhost:3000"
  admin_token: "test-token"

store:
  driver: "sqlite"
  path: "./parley.db"

chat:
  min_delay: "600ms"
  history_limit: 10
  default_agent: "support"

tenant:
  refresh_interval: "30s"

console:
  addr: "127.0.0.1:8090"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Backend.URL != "http://localhost:3000" {
		t.Errorf("Backend.URL = %q, want %q", cfg.Backend.URL, "http://localhost:3000")
	}
	if cfg.Store.Driver != "sqlite" {
		t.Errorf("Store.Driver = %q, want sqlite", cfg.Store.Driver)
	}
	if cfg.Chat.MinDelay != 600*time.Millisecond {
		t.Errorf("Chat.MinDelay = %v, want 600ms", cfg.Chat.MinDelay)
	}
	if cfg.Chat.HistoryLimit != 10 {
		t.Errorf("Chat.HistoryLimit = %d, want 10", cfg.Chat.HistoryLimit)
	}
	if cfg.Tenant.RefreshInterval != 30*time.Second {
		t.Errorf("Tenant.RefreshInterval = %v, want 30s", cfg.Tenant.RefreshInterval)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("PARLEY_TEST_TOKEN", "secret-from-env")

	configPath := writeConfig(t, `
backend:
  url: "http://localhost:3000"
  admin_token: "${PARLEY_TEST_TOKEN}"

store:
  driver: "memory"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Backend.AdminToken != "secret-from-env" {
		t.Errorf("Backend.AdminToken = %q, want expanded env value", cfg.Backend.AdminToken)
	}
}

func TestLoad_UnsetEnvVarBecomesEmpty(t *testing.T) {
	configPath := writeConfig(t, `
backend:
  url: "http://localhost:3000"
  admin_token: "${PARLEY_DEFINITELY_UNSET_VAR}"

store:
  driver: "memory"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Backend.AdminToken != "" {
		t.Errorf("Backend.AdminToken = %q, want empty", cfg.Backend.AdminToken)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, `
backend:
  url: "http://localhost:3000"

store:
  driver: "memory"

chat:
  min_delay: "not-a-duration"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() should fail on invalid duration")
	}
	if !strings.Contains(err.Error(), "min_delay") {
		t.Errorf("error %q should mention min_delay", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("Load() should fail on missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid sqlite",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing backend url",
			mutate:  func(c *Config) { c.Backend.URL = "" },
			wantErr: "backend.url",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Store.Path = "" },
			wantErr: "store.path",
		},
		{
			name: "redis without addr",
			mutate: func(c *Config) {
				c.Store.Driver = "redis"
				c.Store.RedisAddr = ""
			},
			wantErr: "store.redis_addr",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Store.Driver = "etcd" },
			wantErr: "store.driver",
		},
		{
			name:    "negative history limit",
			mutate:  func(c *Config) { c.Chat.HistoryLimit = -1 },
			wantErr: "history_limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{}
			cfg.Backend.URL = "http://localhost:3000"
			cfg.Store.Driver = "sqlite"
			cfg.Store.Path = "./parley.db"
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() returned error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() should fail for %s", tt.name)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}
