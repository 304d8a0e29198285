package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ServerConfig configures the reference Task API server
type ServerConfig struct {
	Port            int
	DBPath          string
	FixturePath     string
	LogLevel        string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	AdminUsername   string
	AdminPassword   string
}

// LoadServer reads the server configuration from the environment
func LoadServer() (*ServerConfig, error) {
	cfg := &ServerConfig{
		Port:            envInt("PORT", 8750),
		DBPath:          envStr("LABELING_DB_PATH", "labeling_app.db"),
		FixturePath:     envStr("LABELING_FIXTURES", ""),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		AccessTokenTTL:  time.Duration(envInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60)) * time.Minute,
		RefreshTokenTTL: time.Duration(envInt("REFRESH_TOKEN_EXPIRE_DAYS", 7)) * 24 * time.Hour,
		AdminUsername:   envStr("ADMIN_USERNAME", "admin"),
		AdminPassword:   envStr("ADMIN_PASSWORD", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("LABELING_DB_PATH must not be empty")
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if c.RefreshTokenTTL < c.AccessTokenTTL {
		return fmt.Errorf("refresh tokens must outlive access tokens")
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
