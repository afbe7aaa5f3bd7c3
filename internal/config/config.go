// Package config loads exporter settings from the environment.
//
// Credentials and defaults come from environment variables (a local .env
// file is honored). An optional TOML file can supply defaults for the
// non-secret settings; environment variables always win over the file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/alderacgit/ZenDeskExport/pkg/errors"
)

// Config holds every setting the exporter reads. It is populated once at
// startup and passed down explicitly; nothing reads the environment after
// Load returns.
type Config struct {
	// Credentials (required)
	Email     string
	APIToken  string
	Subdomain string

	// Optional defaults
	DefaultGroupID string
	OutputDir      string
	CacheDir       string
	CacheTTL       time.Duration
	LogDir         string
	LogLevel       string
	RedisAddr      string // when set, the response cache uses Redis
}

// fileConfig is the TOML defaults file shape. Credentials deliberately have
// no file form; they stay in the environment.
type fileConfig struct {
	DefaultGroupID string `toml:"default_group_id"`
	OutputDir      string `toml:"output_dir"`
	CacheDir       string `toml:"cache_dir"`
	CacheTTL       string `toml:"cache_ttl"`
	LogDir         string `toml:"log_dir"`
	LogLevel       string `toml:"log_level"`
	RedisAddr      string `toml:"redis_addr"`
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first if present. When path is non-empty it
// names a TOML defaults file applied underneath the environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var file fileConfig
	if path != "" {
		if _, err := toml.DecodeFile(path, &file); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config file %s", path)
		}
	}

	cfg := &Config{
		Email:          getEnvString("ZENDESK_EMAIL", ""),
		APIToken:       getEnvString("ZENDESK_API_TOKEN", ""),
		Subdomain:      getEnvString("ZENDESK_SUBDOMAIN", ""),
		DefaultGroupID: getEnvString("ZENDESK_DEFAULT_GROUP_ID", file.DefaultGroupID),
		OutputDir:      getEnvString("OUTPUT_DIR", fallback(file.OutputDir, "./output")),
		CacheDir:       getEnvString("CACHE_DIR", file.CacheDir),
		CacheTTL:       getEnvDuration("CACHE_TTL", fileDuration(file.CacheTTL, time.Hour)),
		LogDir:         getEnvString("LOG_DIR", fallback(file.LogDir, "./logs")),
		LogLevel:       getEnvString("LOG_LEVEL", fallback(file.LogLevel, "info")),
		RedisAddr:      getEnvString("REDIS_ADDR", file.RedisAddr),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing required variable at once.
func (c *Config) Validate() error {
	var missing []string
	if c.Email == "" {
		missing = append(missing, "ZENDESK_EMAIL")
	}
	if c.APIToken == "" {
		missing = append(missing, "ZENDESK_API_TOKEN")
	}
	if c.Subdomain == "" {
		missing = append(missing, "ZENDESK_SUBDOMAIN")
	}
	if len(missing) > 0 {
		return errors.New(errors.ErrCodeInvalidInput,
			"missing required environment variables: %s (set them in the environment or a .env file)",
			strings.Join(missing, ", "))
	}
	return nil
}

func fallback(value, def string) string {
	if value != "" {
		return value
	}
	return def
}

func fileDuration(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}

func getEnvString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(value)
		if d, err := time.ParseDuration(trimmed); err == nil {
			return d
		}
		// Bare numbers are treated as hours for .env ergonomics
		if n, err := strconv.Atoi(trimmed); err == nil {
			return time.Duration(n) * time.Hour
		}
	}
	return fallback
}
