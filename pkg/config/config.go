package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port           string   `yaml:"port"`
	DatabaseURL    string   `yaml:"database_url"`
	AppEnv         string   `yaml:"app_env"`
	BaseURL        string   `yaml:"base_url"` // Origin share links are built against
	LinkSigning    string   `yaml:"link_signing"`
	LinkSecret     string   `yaml:"link_secret"`
	DefaultTTLDays int      `yaml:"default_ttl_days"`
	LogLevel       string   `yaml:"log_level"`
	LogFormat      string   `yaml:"log_format"`
	KafkaBrokers   []string `yaml:"kafka_brokers"`
	KafkaTopic     string   `yaml:"kafka_topic"`
}

func defaults() *Config {
	return &Config{
		Port:           "8080",
		DatabaseURL:    "file:db.sqlite",
		AppEnv:         "local",
		BaseURL:        "http://localhost:8080",
		LinkSigning:    "unsigned",
		DefaultTTLDays: 365,
		LogLevel:       "info",
		LogFormat:      "text",
		KafkaTopic:     "certificate-events",
	}
}

// Load reads .env (if present), the YAML file named by CONFIG_FILE (if set)
// and then environment variables, in increasing precedence.
func Load() (*Config, error) {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.BaseURL = getEnv("BASE_URL", cfg.BaseURL)
	cfg.LinkSigning = getEnv("LINK_SIGNING", cfg.LinkSigning)
	cfg.LinkSecret = getEnv("LINK_SECRET", cfg.LinkSecret)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", cfg.KafkaTopic)
	if brokers, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
		cfg.KafkaBrokers = splitList(brokers)
	}
	if ttl, ok := os.LookupEnv("DEFAULT_TTL_DAYS"); ok {
		days, err := strconv.Atoi(ttl)
		if err != nil {
			return nil, fmt.Errorf("DEFAULT_TTL_DAYS is invalid: %w", err)
		}
		cfg.DefaultTTLDays = days
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base_url must be an http(s) origin, got %q", c.BaseURL)
	}

	switch strings.ToLower(c.LinkSigning) {
	case "", "unsigned":
	case "signed":
		if c.LinkSecret == "" {
			return fmt.Errorf("link_secret is required when link_signing is 'signed'")
		}
	default:
		return fmt.Errorf("link_signing must be 'unsigned' or 'signed'")
	}

	if c.DefaultTTLDays < 1 || c.DefaultTTLDays > 36500 {
		return fmt.Errorf("default_ttl_days must be between 1 and 36500")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("log_format must be 'json' or 'text'")
	}
	return nil
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
