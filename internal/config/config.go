package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// DirName is the per-user and per-project config directory name
	DirName = ".labeling"

	DefaultServerURL      = "http://localhost:8750"
	DefaultHistoryLimit   = 10
	DefaultPendingLimit   = 10
	DefaultTimeoutSeconds = 30
)

// Config represents the annotator client's configuration
type Config struct {
	ServerURL             string `json:"server_url"`
	HistoryLimit          int    `json:"history_limit"`
	PendingLimit          int    `json:"pending_limit"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
	LogLevel              string `json:"log_level,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ServerURL:             DefaultServerURL,
		HistoryLimit:          DefaultHistoryLimit,
		PendingLimit:          DefaultPendingLimit,
		RequestTimeoutSeconds: DefaultTimeoutSeconds,
	}
}

// RequestTimeout returns the per-call deadline
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Validate checks the values a session depends on
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server_url must not be empty")
	}
	if c.HistoryLimit < 1 {
		return fmt.Errorf("history_limit must be positive, got %d", c.HistoryLimit)
	}
	if c.PendingLimit < 1 {
		return fmt.Errorf("pending_limit must be positive, got %d", c.PendingLimit)
	}
	if c.RequestTimeoutSeconds < 1 {
		return fmt.Errorf("request_timeout_seconds must be positive, got %d", c.RequestTimeoutSeconds)
	}
	return nil
}

// GlobalDir returns the global config directory path (~/.labeling)
func GlobalDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DirName), nil
}

// globalConfigPath returns the global config file path (~/.labeling/config.json)
func globalConfigPath() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// projectConfigPath returns the project-level config path (.labeling/config.json in cwd)
func projectConfigPath() string {
	return filepath.Join(DirName, "config.json")
}

// CredentialsPath returns where the token store persists logins
func CredentialsPath() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "credentials.json"), nil
}

// LogPath returns the client log file path (~/.labeling/logs/review-tui.log)
func LogPath() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs", "review-tui.log"), nil
}

// Load reads the config from disk, checking project config first, then global.
// Missing fields keep their defaults.
func Load() (*Config, error) {
	if data, err := os.ReadFile(projectConfigPath()); err == nil {
		return parse(data)
	}

	globalPath, err := globalConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(globalPath)
}

// LoadFile reads one config file; a missing file yields the defaults
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveToGlobal writes the config to the global location (~/.labeling/config.json)
func SaveToGlobal(cfg *Config) error {
	path, err := globalConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile writes cfg as indented JSON, creating the directory if needed
func SaveFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
