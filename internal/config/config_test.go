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
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8460"

storage:
  backend: "fs"
  root: "./artifacts"

database:
  path: "./registry.db"

trace_store:
  base_url: "http://localhost:9090"
  timeout: "15s"

logging:
  level: "debug"
  format: "json"

metrics:
  enabled: true
  path: "/metrics"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8460" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:8460")
	}
	if cfg.Storage.Backend != "fs" {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, "fs")
	}
	if cfg.Storage.Root != "./artifacts" {
		t.Errorf("Storage.Root = %q, want %q", cfg.Storage.Root, "./artifacts")
	}
	if cfg.Database.Path != "./registry.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./registry.db")
	}
	if cfg.TraceStore.BaseURL != "http://localhost:9090" {
		t.Errorf("TraceStore.BaseURL = %q, want %q", cfg.TraceStore.BaseURL, "http://localhost:9090")
	}
	if cfg.TraceStore.Timeout != 15*time.Second {
		t.Errorf("TraceStore.Timeout = %v, want %v", cfg.TraceStore.Timeout, 15*time.Second)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("CASEFILE_TEST_BUCKET", "insights-bucket")

	configPath := writeConfig(t, `
storage:
  backend: "s3"
  s3:
    bucket: "${CASEFILE_TEST_BUCKET}"
    region: "us-east-1"

database:
  path: "./registry.db"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.S3.Bucket != "insights-bucket" {
		t.Errorf("Storage.S3.Bucket = %q, want %q", cfg.Storage.S3.Bucket, "insights-bucket")
	}
}

func TestLoad_UnsetEnvVarBecomesEmpty(t *testing.T) {
	configPath := writeConfig(t, `
storage:
  backend: "fs"
  root: "${CASEFILE_DEFINITELY_UNSET_VAR}"

database:
  path: "./registry.db"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected validation error for empty storage.root")
	}
	if !strings.Contains(err.Error(), "storage.root") {
		t.Errorf("error %q should mention storage.root", err)
	}
}

func TestLoad_DefaultTimeout(t *testing.T) {
	configPath := writeConfig(t, `
storage:
  backend: "memory"

database:
  path: "./registry.db"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TraceStore.Timeout != 10*time.Second {
		t.Errorf("TraceStore.Timeout = %v, want default 10s", cfg.TraceStore.Timeout)
	}
}

func TestLoad_DefaultMetricsPath(t *testing.T) {
	configPath := writeConfig(t, `
storage:
  backend: "memory"

database:
  path: "./registry.db"

metrics:
  enabled: true
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/metrics")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, `
storage:
  backend: "memory"

database:
  path: "./registry.db"

trace_store:
  timeout: "soon"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "trace_store.timeout") {
		t.Errorf("error %q should mention trace_store.timeout", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "unknown backend",
			cfg: Config{
				Storage:  StorageConfig{Backend: "tape"},
				Database: DatabaseConfig{Path: "./db"},
			},
			want: "storage.backend",
		},
		{
			name: "s3 without bucket",
			cfg: Config{
				Storage:  StorageConfig{Backend: "s3", S3: S3Config{Region: "us-east-1"}},
				Database: DatabaseConfig{Path: "./db"},
			},
			want: "storage.s3.bucket",
		},
		{
			name: "s3 without region",
			cfg: Config{
				Storage:  StorageConfig{Backend: "s3", S3: S3Config{Bucket: "b"}},
				Database: DatabaseConfig{Path: "./db"},
			},
			want: "storage.s3.region",
		},
		{
			name: "missing database path",
			cfg: Config{
				Storage: StorageConfig{Backend: "memory"},
			},
			want: "database.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default(t.TempDir())
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() config should validate, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}
