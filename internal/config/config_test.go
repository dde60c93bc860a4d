package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "APP_ENV", "DATA_DIR", "FILES_DIR", "SESSION_TTL", "RESET_TOKEN_TTL", "SMTP_HOST", "SMTP_PORT", "SMTP_FROM", "ALLOWED_ORIGINS", "HOUSEKEEPING_SCHEDULE", "MAX_UPLOAD_MB"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.ServerPort)
	require.Equal(t, "./data", cfg.DataDir)
	require.Equal(t, "./files", cfg.FilesDir)
	require.Equal(t, 24*time.Hour, cfg.SessionTTL)
	require.Equal(t, time.Hour, cfg.ResetTokenTTL)
	require.Equal(t, int64(512<<20), cfg.MaxUploadBytes)
	require.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	require.Empty(t, cfg.HousekeepingSchedule)
	require.False(t, cfg.SMTP.Enabled())
	require.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_FROM", "noreply@example.com")
	t.Setenv("APP_ENV", "production")
	t.Setenv("HOUSEKEEPING_SCHEDULE", "@hourly")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.ServerPort)
	require.Equal(t, 30*time.Minute, cfg.SessionTTL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	require.True(t, cfg.SMTP.Enabled())
	require.True(t, cfg.IsProduction())
	require.Equal(t, "@hourly", cfg.HousekeepingSchedule)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"PORT", "eighty"},
		{"SMTP_PORT", "x"},
		{"SESSION_TTL", "forever"},
		{"RESET_TOKEN_TTL", "-1h"},
		{"MAX_UPLOAD_MB", "lots"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}
