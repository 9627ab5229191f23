// Package config loads CLI configuration from a TOML file with
// environment variable overrides.
//
// The file lives at ~/.config/fractal/config.toml:
//
//	server = "https://dev.fractal.global/"
//	app_id = "my-app"
//	app_secret = "..."
//
//	[cache]
//	enabled = true
//	ttl = "5m"
//
// Environment variables FRACTAL_SERVER, FRACTAL_APP_ID, and
// FRACTAL_APP_SECRET override the file. The secret should normally come
// from the environment rather than the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the CLI configuration.
type Config struct {
	Server    string      `toml:"server"`
	AppID     string      `toml:"app_id"`
	AppSecret string      `toml:"app_secret"`
	Cache     CacheConfig `toml:"cache"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	Enabled bool     `toml:"enabled"`
	Dir     string   `toml:"dir"`
	TTL     duration `toml:"ttl"`
}

// duration wraps time.Duration for TOML decoding from strings like "5m".
type duration struct{ time.Duration }

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// GetTTL returns the configured cache TTL, defaulting to 5 minutes.
func (c CacheConfig) GetTTL() time.Duration {
	if c.TTL.Duration == 0 {
		return 5 * time.Minute
	}
	return c.TTL.Duration
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "fractal", "config.toml"), nil
}

// Load reads configuration from path and applies environment overrides.
// A missing file is not an error; defaults plus the environment apply.
// If path is empty, the default location is used.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := &Config{}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FRACTAL_SERVER"); v != "" {
		cfg.Server = v
	}
	if v := os.Getenv("FRACTAL_APP_ID"); v != "" {
		cfg.AppID = v
	}
	if v := os.Getenv("FRACTAL_APP_SECRET"); v != "" {
		cfg.AppSecret = v
	}
}

// Validate checks that the credentials needed for API access are set.
func (c *Config) Validate() error {
	if c.AppID == "" {
		return fmt.Errorf("app_id is not set (config file or FRACTAL_APP_ID)")
	}
	if c.AppSecret == "" {
		return fmt.Errorf("app_secret is not set (config file or FRACTAL_APP_SECRET)")
	}
	return nil
}
