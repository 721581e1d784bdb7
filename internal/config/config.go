package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	GeminiAPIKey         string
	GeminiModel          string
	GenerationTimeout    time.Duration
	DatabaseURL          string
	HTTPPort             string
	LogLevel             string
	AppEnv               string
	SessionSecret        string
	SessionTTL           time.Duration
	SessionPruneInterval time.Duration
	ChatRatePerMinute    int
}

// Load reads a .env file when present and then the process environment.
// It reports whether a .env file was found so the caller can log it once
// its logger exists.
func Load() (*Config, bool, error) {
	envFileLoaded := godotenv.Load() == nil

	cfg := &Config{
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		GeminiModel:          getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GenerationTimeout:    getEnvAsDuration("GENERATION_TIMEOUT", 60*time.Second),
		DatabaseURL:          getEnv("DATABASE_URL", "unova.db"),
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		LogLevel:             strings.ToUpper(getEnv("LOG_LEVEL", "INFO")),
		AppEnv:               strings.ToLower(getEnv("APP_ENV", "development")),
		SessionSecret:        getEnv("SESSION_SECRET", ""),
		SessionTTL:           getEnvAsDuration("SESSION_TTL", 7*24*time.Hour),
		SessionPruneInterval: getEnvAsDuration("SESSION_PRUNE_INTERVAL", 15*time.Minute),
		ChatRatePerMinute:    getEnvAsInt("CHAT_RATE_PER_MINUTE", 30),
	}

	if err := cfg.Validate(); err != nil {
		return nil, envFileLoaded, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, envFileLoaded, nil
}

// Validate checks required fields. A missing GEMINI_API_KEY is not an
// error here: chat requests report it when they need the key.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET environment variable is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL cannot be empty")
	}
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be > 0")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if c.SessionPruneInterval <= 0 {
		return fmt.Errorf("SESSION_PRUNE_INTERVAL must be > 0")
	}
	if c.ChatRatePerMinute < 0 {
		return fmt.Errorf("CHAT_RATE_PER_MINUTE must be >= 0")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv != "production" && c.AppEnv != "prod"
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(strings.TrimSpace(valueStr)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(strings.TrimSpace(valueStr)); err == nil {
		return value
	}
	return defaultValue
}
