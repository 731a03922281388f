package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file, overridable with BOOKSTORE_CONFIG.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port           string   `yaml:"port"`
	LogLevel       string   `yaml:"logLevel"`
	DatabaseDriver string   `yaml:"databaseDriver"`
	DatabaseURL    string   `yaml:"databaseURL"`
	RedisAddr      string   `yaml:"redisAddr"`
	RedisPassword  string   `yaml:"redisPassword"`
	BookCacheTTL   string   `yaml:"bookCacheTTL"`
	JWTKey         string   `yaml:"jwtKey"`
	JWTIssuer      string   `yaml:"jwtIssuer"`
	JWTAudience    string   `yaml:"jwtAudience"`
	JWTTTL         string   `yaml:"jwtTTL"`
	JWTLeeway      string   `yaml:"jwtLeeway"`
	TrustedProxies []string `yaml:"trustedProxies"`
}

// Path returns the config file location, honoring BOOKSTORE_CONFIG.
func Path() string {
	if v := strings.TrimSpace(os.Getenv("BOOKSTORE_CONFIG")); v != "" {
		return v
	}
	return ConfigPath
}

// DefaultJWTLeeway applies when jwtLeeway is unset. "0s" disables leeway.
const DefaultJWTLeeway = "30s"

// Load reads config from path (defaults to config.yaml), applies
// environment overrides and validates the result.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	if cfg.DatabaseDriver == "" {
		cfg.DatabaseDriver = "postgres"
	}
	if cfg.JWTLeeway == "" {
		cfg.JWTLeeway = DefaultJWTLeeway
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	overrides := []struct {
		env string
		dst *string
	}{
		{"PORT", &cfg.Port},
		{"LOG_LEVEL", &cfg.LogLevel},
		{"DATABASE_DRIVER", &cfg.DatabaseDriver},
		{"DATABASE_URL", &cfg.DatabaseURL},
		{"REDIS_ADDR", &cfg.RedisAddr},
		{"REDIS_PASSWORD", &cfg.RedisPassword},
		{"BOOK_CACHE_TTL", &cfg.BookCacheTTL},
		{"JWT_KEY", &cfg.JWTKey},
		{"JWT_ISSUER", &cfg.JWTIssuer},
		{"JWT_AUDIENCE", &cfg.JWTAudience},
		{"JWT_TTL", &cfg.JWTTTL},
		{"JWT_LEEWAY", &cfg.JWTLeeway},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		cfg.TrustedProxies = strings.Split(v, ",")
	}
}

func validateConfig(cfg FileConfig) error {
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver)) {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported databaseDriver %q (want postgres or sqlite)", cfg.DatabaseDriver)
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return errors.New("config: databaseURL is required (set DATABASE_URL)")
	}
	if strings.TrimSpace(cfg.JWTKey) == "" {
		return errors.New("config: jwtKey is required (set JWT_KEY)")
	}
	durations := []struct {
		name  string
		value string
	}{
		{"bookCacheTTL", cfg.BookCacheTTL},
		{"jwtTTL", cfg.JWTTTL},
		{"jwtLeeway", cfg.JWTLeeway},
	}
	for _, d := range durations {
		if _, err := ParseDuration(d.name, d.value); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

// ParseDuration parses an optional, non-negative duration setting.
// An empty value yields zero so callers fall back to their defaults.
func ParseDuration(name, value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", name, err)
	}
	if dur < 0 {
		return 0, fmt.Errorf("invalid %s duration: must not be negative", name)
	}
	return dur, nil
}
