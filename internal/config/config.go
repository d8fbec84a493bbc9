package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Service modes.
const (
	ModeMonolith = "monolith"
	ModeProxy    = "proxy"
	ModeDialog   = "dialog"
)

// Storage backends.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite3"
	StorageMySQL  = "mysql"
)

const (
	defaultServerAddress   = ":8080"
	defaultDialogUpstream  = "http://dialog-service:8080"
	defaultShutdownTimeout = 10
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
}

type BasicConfig struct {
	Mode                   string `json:"mode"`
	ServerAddress          string `json:"server_address"`
	Storage                string `json:"storage"`
	DialogUpstream         string `json:"dialog_upstream"`
	LogLevel               string `json:"log_level"`
	LogFormat              string `json:"log_format"`
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// Load reads configuration from the provided path (defaults to config.json),
// then applies environment overrides. A missing file is not an error: every
// setting has a default.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	var cfg Config
	file, err := os.Open(absPath)
	switch {
	case err == nil:
		defer file.Close()
		if err := json.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg, filepath.Dir(absPath))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DIALOGHUB_MODE"); v != "" {
		cfg.BasicConfig.Mode = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.BasicConfig.ServerAddress = ":" + v
	}
	if v := os.Getenv("DIALOGHUB_STORAGE"); v != "" {
		cfg.BasicConfig.Storage = v
	}
	if v := os.Getenv("DIALOGHUB_UPSTREAM"); v != "" {
		cfg.BasicConfig.DialogUpstream = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.BasicConfig.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.BasicConfig.LogFormat = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, portStr, err := net.SplitHostPort(v)
		if err != nil {
			return fmt.Errorf("parse REDIS_ADDR: %w", err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("parse REDIS_ADDR port: %w", err)
		}
		cfg.Redis.Enabled = true
		cfg.Redis.Host = host
		cfg.Redis.Port = port
	}
	return nil
}

func applyDefaults(cfg *Config, baseDir string) {
	b := &cfg.BasicConfig
	b.Mode = strings.ToLower(strings.TrimSpace(b.Mode))
	if b.Mode == "" {
		b.Mode = ModeMonolith
	}
	if b.ServerAddress == "" {
		b.ServerAddress = defaultServerAddress
	}
	b.Storage = strings.ToLower(strings.TrimSpace(b.Storage))
	switch b.Storage {
	case "":
		b.Storage = StorageMemory
	case "sqlite":
		b.Storage = StorageSQLite
	}
	if b.DialogUpstream == "" {
		b.DialogUpstream = defaultDialogUpstream
	}
	if b.ShutdownTimeoutSeconds <= 0 {
		b.ShutdownTimeoutSeconds = defaultShutdownTimeout
	}

	if cfg.Databases == nil {
		cfg.Databases = make(map[string]DatabaseConfig)
	}
	sqlite := cfg.Databases[StorageSQLite]
	if sqlite.DSN == "" {
		sqlite.DSN = "file:dialoghub.db"
	}
	if path, ok := strings.CutPrefix(sqlite.DSN, "file:"); ok && path != "" && !strings.HasPrefix(path, ":memory:") && !filepath.IsAbs(path) {
		sqlite.DSN = "file:" + filepath.Join(baseDir, path)
	}
	cfg.Databases[StorageSQLite] = sqlite
}

// Validate rejects unknown modes and storage backends.
func (c *Config) Validate() error {
	switch c.BasicConfig.Mode {
	case ModeMonolith, ModeProxy, ModeDialog:
	default:
		return fmt.Errorf("unsupported mode: %s", c.BasicConfig.Mode)
	}
	switch c.BasicConfig.Storage {
	case StorageMemory, StorageSQLite:
	case StorageMySQL:
		if _, ok := c.Databases[StorageMySQL]; !ok {
			return errors.New("database config for mysql not found")
		}
	default:
		return fmt.Errorf("unsupported storage: %s", c.BasicConfig.Storage)
	}
	return nil
}
