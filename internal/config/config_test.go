package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DIALOGHUB_MODE", "PORT", "DIALOGHUB_STORAGE", "DIALOGHUB_UPSTREAM",
		"LOG_LEVEL", "LOG_FORMAT", "REDIS_ADDR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	b := cfg.BasicConfig
	if b.Mode != ModeMonolith || b.ServerAddress != ":8080" || b.Storage != StorageMemory {
		t.Fatalf("unexpected defaults: %+v", b)
	}
	if b.DialogUpstream != "http://dialog-service:8080" {
		t.Fatalf("unexpected upstream %q", b.DialogUpstream)
	}
	if b.ShutdownTimeoutSeconds != 10 {
		t.Fatalf("unexpected shutdown timeout %d", b.ShutdownTimeoutSeconds)
	}
	if cfg.Redis.Enabled {
		t.Fatalf("redis must stay disabled without REDIS_ADDR")
	}
	want := "file:" + filepath.Join(dir, "dialoghub.db")
	if got := cfg.Databases[StorageSQLite].DSN; got != want {
		t.Fatalf("expected sqlite dsn %q, got %q", want, got)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"basic_config": {"mode": "dialog", "server_address": ":9000", "storage": "sqlite", "log_level": "debug"},
		"databases": {"sqlite3": {"dsn": ":memory:"}}
	}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BasicConfig.Mode != ModeDialog || cfg.BasicConfig.ServerAddress != ":9000" {
		t.Fatalf("file values not applied: %+v", cfg.BasicConfig)
	}
	if cfg.BasicConfig.Storage != StorageSQLite || cfg.Databases[StorageSQLite].DSN != ":memory:" {
		t.Fatalf("unexpected storage settings: %s %q", cfg.BasicConfig.Storage, cfg.Databases[StorageSQLite].DSN)
	}

	t.Setenv("DIALOGHUB_MODE", "Proxy")
	t.Setenv("PORT", "7070")
	t.Setenv("DIALOGHUB_UPSTREAM", "http://localhost:9999")
	t.Setenv("REDIS_ADDR", "127.0.0.1:6380")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BasicConfig.Mode != ModeProxy || cfg.BasicConfig.ServerAddress != ":7070" {
		t.Fatalf("env overrides not applied: %+v", cfg.BasicConfig)
	}
	if cfg.BasicConfig.DialogUpstream != "http://localhost:9999" {
		t.Fatalf("unexpected upstream %q", cfg.BasicConfig.DialogUpstream)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Host != "127.0.0.1" || cfg.Redis.Port != 6380 {
		t.Fatalf("unexpected redis config %+v", cfg.Redis)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"mode":       {"DIALOGHUB_MODE": "gateway"},
		"storage":    {"DIALOGHUB_STORAGE": "postgres"},
		"mysql":      {"DIALOGHUB_STORAGE": "mysql"},
		"redis addr": {"REDIS_ADDR": "localhost"},
		"redis port": {"REDIS_ADDR": "localhost:abc"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(filepath.Join(t.TempDir(), "config.json")); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "decode config") {
		t.Fatalf("expected decode error, got %v", err)
	}
}
