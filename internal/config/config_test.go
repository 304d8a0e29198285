package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFileMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerURL != DefaultServerURL || cfg.HistoryLimit != DefaultHistoryLimit {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if cfg.RequestTimeout() != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.RequestTimeout())
	}
}

func TestLoadFilePartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte(`{"server_url": "https://labels.example.com", "pending_limit": 5}`), 0644)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "https://labels.example.com" {
		t.Errorf("server_url = %q", cfg.ServerURL)
	}
	if cfg.PendingLimit != 5 {
		t.Errorf("pending_limit = %d", cfg.PendingLimit)
	}
	if cfg.HistoryLimit != DefaultHistoryLimit {
		t.Errorf("history_limit should keep default, got %d", cfg.HistoryLimit)
	}
}

func TestSaveFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := DefaultConfig()
	cfg.HistoryLimit = 3

	if err := SaveFile(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.HistoryLimit != 3 {
		t.Errorf("expected 3, got %d", got.HistoryLimit)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty url", func(c *Config) { c.ServerURL = "" }, true},
		{"zero history", func(c *Config) { c.HistoryLimit = 0 }, true},
		{"zero pending", func(c *Config) { c.PendingLimit = 0 }, true},
		{"zero timeout", func(c *Config) { c.RequestTimeoutSeconds = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadServerFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LABELING_DB_PATH", "/tmp/x.db")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "15")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 9000 || cfg.DBPath != "/tmp/x.db" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Errorf("expected 15m, got %v", cfg.AccessTokenTTL)
	}
}

func TestLoadServerRejectsBadPort(t *testing.T) {
	t.Setenv("PORT", "70000")
	if _, err := LoadServer(); err == nil {
		t.Error("expected validation error")
	}
}

func TestSaveToGlobalWritesUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := DefaultConfig()
	cfg.ServerURL = "http://review.local:9000"
	if err := SaveToGlobal(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := LoadFile(filepath.Join(home, DirName, "config.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ServerURL != "http://review.local:9000" {
		t.Errorf("server_url = %q", got.ServerURL)
	}
}
