package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration lets YAML carry human-readable durations like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the runtime configuration for the engine and its surfaces.
// Values come from config.yaml, overridden by UMLSD_* environment
// variables; a .env file is loaded first if present.
type Config struct {
	DB struct {
		Driver       string `yaml:"driver"`
		DSN          string `yaml:"dsn"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
	} `yaml:"db"`
	Query struct {
		Timeout           Duration      `yaml:"timeout"`
		MaxPathRows       int           `yaml:"max_path_rows"`
		MaxSearchLimit    int           `yaml:"max_search_limit"`
		DefaultVocabulary string        `yaml:"default_vocabulary"`
	} `yaml:"query"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	var cfg Config
	cfg.DB.Driver = "sqlite3"
	cfg.DB.DSN = "umls.db"
	cfg.DB.MaxOpenConns = 8
	cfg.DB.MaxIdleConns = 4
	cfg.Query.Timeout = Duration(30 * time.Second)
	cfg.Query.MaxPathRows = 500
	cfg.Query.MaxSearchLimit = 100
	cfg.Query.DefaultVocabulary = "HPO"
	cfg.Server.Addr = ":8000"
	cfg.LogLevel = "info"
	return &cfg
}

// Load reads configuration from path, tolerating a missing file.
func Load(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config; a missing file just means defaults
	file, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// 3. Override with environment variables if present
	if dsn := os.Getenv("UMLSD_DB_DSN"); dsn != "" {
		cfg.DB.DSN = dsn
	}
	if driver := os.Getenv("UMLSD_DB_DRIVER"); driver != "" {
		cfg.DB.Driver = driver
	}
	if addr := os.Getenv("UMLSD_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if level := os.Getenv("UMLSD_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if vocab := os.Getenv("UMLSD_DEFAULT_VOCABULARY"); vocab != "" {
		cfg.Query.DefaultVocabulary = vocab
	}
	if raw := os.Getenv("UMLSD_QUERY_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("UMLSD_QUERY_TIMEOUT: %w", err)
		}
		cfg.Query.Timeout = Duration(d)
	}
	if raw := os.Getenv("UMLSD_MAX_PATH_ROWS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("UMLSD_MAX_PATH_ROWS: %w", err)
		}
		cfg.Query.MaxPathRows = n
	}

	return cfg, nil
}
