package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server = "https://dev.fractal.global/"
app_id = "my-app"
app_secret = "c2VjcmV0"

[cache]
enabled = true
ttl = "10m"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server != "https://dev.fractal.global/" {
		t.Errorf("Server = %q", cfg.Server)
	}
	if cfg.AppID != "my-app" || cfg.AppSecret != "c2VjcmV0" {
		t.Errorf("credentials = %q/%q", cfg.AppID, cfg.AppSecret)
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled = false")
	}
	if cfg.Cache.GetTTL() != 10*time.Minute {
		t.Errorf("Cache.GetTTL() = %v", cfg.Cache.GetTTL())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v for missing file", err)
	}
	if cfg.AppID != "" {
		t.Errorf("AppID = %q, want empty defaults", cfg.AppID)
	}
	if cfg.Cache.GetTTL() != 5*time.Minute {
		t.Errorf("default TTL = %v, want 5m", cfg.Cache.GetTTL())
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server = "https://api.fractal.global/"
app_id = "file-app"
`)

	t.Setenv("FRACTAL_SERVER", "https://dev.fractal.global/")
	t.Setenv("FRACTAL_APP_ID", "env-app")
	t.Setenv("FRACTAL_APP_SECRET", "env-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server != "https://dev.fractal.global/" {
		t.Errorf("Server = %q, env should win", cfg.Server)
	}
	if cfg.AppID != "env-app" || cfg.AppSecret != "env-secret" {
		t.Errorf("credentials = %q/%q", cfg.AppID, cfg.AppSecret)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil for empty config")
	}
	cfg.AppID = "app"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil without secret")
	}
	cfg.AppSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestBadTOML(t *testing.T) {
	path := writeConfig(t, `server = [broken`)
	if _, err := Load(path); err == nil {
		t.Error("Load() = nil for malformed file")
	}
}
