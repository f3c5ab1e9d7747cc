// Package config loads settings for the command-line tool from a YAML or
// JSON-with-comments file and from the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvBaseURL      = "DISCUIT_BASE_URL"
	EnvUserAgent    = "DISCUIT_USER_AGENT"
	EnvUsername     = "DISCUIT_USERNAME"
	EnvPasswordFile = "DISCUIT_PASSWORD_FILE"
	EnvTimeout      = "DISCUIT_TIMEOUT"
	EnvLogLevel     = "LOG_LEVEL"
	EnvLogFile      = "LOG_FILE"
)

// LogConfig selects log verbosity and destination.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// Config holds the CLI settings. Empty fields fall back to the library
// defaults.
type Config struct {
	BaseURL      string    `yaml:"base_url" json:"base_url"`
	UserAgent    string    `yaml:"user_agent" json:"user_agent"`
	Username     string    `yaml:"username" json:"username"`
	PasswordFile string    `yaml:"password_file" json:"password_file"`
	Timeout      string    `yaml:"timeout" json:"timeout"` // Go duration, e.g. "30s"
	Log          LogConfig `yaml:"log" json:"log"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Timeout: "30s",
		Log:     LogConfig{Level: "warn"},
	}
}

// Load reads the file at path over the defaults. The format follows the
// extension: .yaml and .yml are YAML, .json and .jsonc are JSON that may
// contain comments and trailing commas. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing YAML config %s: %w", path, err)
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
			return cfg, fmt.Errorf("parsing JSON config %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config format %q (use .yaml, .yml, .json or .jsonc)", filepath.Ext(path))
	}

	return cfg, nil
}

// ApplyEnv overrides fields from environment variables that are set and
// non-empty. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set(&c.BaseURL, EnvBaseURL)
	set(&c.UserAgent, EnvUserAgent)
	set(&c.Username, EnvUsername)
	set(&c.PasswordFile, EnvPasswordFile)
	set(&c.Timeout, EnvTimeout)
	set(&c.Log.Level, EnvLogLevel)
	set(&c.Log.File, EnvLogFile)
}

// TimeoutDuration parses Timeout. An empty value means no timeout.
func (c Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid timeout %q: must not be negative", c.Timeout)
	}
	return d, nil
}

// Validate checks the fields that can be checked without contacting the server.
func (c Config) Validate() error {
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if c.PasswordFile != "" && c.Username == "" {
		return fmt.Errorf("password_file is set but username is empty")
	}
	return nil
}

// ReadPasswordFile reads a password from path, stripping trailing newlines.
func ReadPasswordFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading password file: %w", err)
	}
	password := strings.TrimRight(string(data), "\r\n")
	if password == "" {
		return "", fmt.Errorf("password file %s is empty", path)
	}
	return password, nil
}
