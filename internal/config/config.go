package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	ServerPort           int
	AppEnv               string
	LogLevel             string
	DataDir              string // users.json, sessions.json, reset_tokens.json and events.db
	FilesDir             string // Base path for per-user file trees
	AllowedOrigins       []string
	SessionTTL           time.Duration
	ResetTokenTTL        time.Duration
	ResetURLBase         string
	MaxUploadBytes       int64
	HousekeepingSchedule string // Cron expression; empty disables the sweep
	SMTP                 SMTPConfig
}

// SMTPConfig holds the outgoing mail settings for password reset emails.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether enough settings are present to send mail.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

// IsProduction reports whether the server runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	smtpPort, err := getEnvInt("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}
	maxUploadMB, err := getEnvInt("MAX_UPLOAD_MB", 512)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := getEnvDuration("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	resetTTL, err := getEnvDuration("RESET_TOKEN_TTL", time.Hour)
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:           port,
		AppEnv:               getEnv("APP_ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DataDir:              getEnv("DATA_DIR", "./data"),
		FilesDir:             getEnv("FILES_DIR", "./files"),
		AllowedOrigins:       splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		SessionTTL:           sessionTTL,
		ResetTokenTTL:        resetTTL,
		ResetURLBase:         getEnv("RESET_URL_BASE", "http://localhost:8000/reset-password"),
		MaxUploadBytes:       int64(maxUploadMB) << 20,
		HousekeepingSchedule: getEnv("HOUSEKEEPING_SCHEDULE", ""),
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     smtpPort,
			Username: getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
	}, nil
}

// Helper to get an environment variable with a default value. Empty counts as unset.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := getEnv(key, strconv.Itoa(fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := getEnv(key, fallback.String())
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, value)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
