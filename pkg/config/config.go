// Package config holds the YAML configuration for the CLI and the
// shared HTTP client.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Request         RequestConfig         `yaml:"request"`
	Log             LogConfig             `yaml:"log"`
	QuickStatements QuickStatementsConfig `yaml:"quickstatements"`
}

// RequestConfig holds HTTP request settings.
type RequestConfig struct {
	Timeout   Duration `yaml:"timeout"`
	UserAgent string   `yaml:"user_agent"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// QuickStatementsConfig holds the QuickStatements batch credentials.
// Both values fall back to the environment when empty.
type QuickStatementsConfig struct {
	Token    string `yaml:"token"`
	Username string `yaml:"username"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Request: RequestConfig{
			Timeout: Duration(60 * time.Second),
		},
		Log: LogConfig{
			Level: "WARN",
		},
	}
}

// Load reads the configuration file at path, layered over the defaults.
// A missing file is not an error; the defaults are returned. Credentials
// left empty fall back to WIKITOOLS_QS_TOKEN / WIKITOOLS_QS_USER.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Load from Env if empty (as a fallback, never saved back to disk)
	if cfg.QuickStatements.Token == "" {
		cfg.QuickStatements.Token = os.Getenv("WIKITOOLS_QS_TOKEN")
	}
	if cfg.QuickStatements.Username == "" {
		cfg.QuickStatements.Username = os.Getenv("WIKITOOLS_QS_USER")
	}

	return cfg, nil
}
