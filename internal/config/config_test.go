package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("JWT_SECRET_KEY", "jwt-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Timekeeping.CorrectionEscalationDays)
	assert.Equal(t, 180, cfg.Timekeeping.MaxBreakMinutes)
	assert.Equal(t, 90, cfg.Timekeeping.LatenessWindowDays)
	assert.Equal(t, 3, cfg.Timekeeping.LatenessThreshold)
	assert.Equal(t, "repeated_lateness", cfg.Timekeeping.LatenessPolicyName)
	assert.Equal(t, 48, cfg.Timekeeping.AdHocDeadlineHours)
	assert.Equal(t, "@every 15m", cfg.Timekeeping.MaintenanceSchedule)
	assert.Equal(t, "postgres", cfg.App.StorageDriver)
	assert.Equal(t, 5*time.Second, cfg.Notification.FlushInterval)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", loc.String())
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_BREAK_MINUTES", "60")
	t.Setenv("LATENESS_THRESHOLD", "5")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("REDIS_LOCK_TTL", "10s")
	t.Setenv("ALLOWED_ORIGINS", "https://hr.example.com, ,https://admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Timekeeping.MaxBreakMinutes)
	assert.Equal(t, 5, cfg.Timekeeping.LatenessThreshold)
	assert.Equal(t, "memory", cfg.App.StorageDriver)
	assert.Equal(t, 10*time.Second, cfg.Redis.LockTTL)
	assert.Equal(t, []string{"https://hr.example.com", "https://admin.example.com"}, cfg.App.AllowedOrigins)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"non-numeric port", "APP_PORT", "eighty"},
		{"bad duration", "NOTIFICATION_FLUSH_INTERVAL", "soon"},
		{"zero threshold", "LATENESS_THRESHOLD", "0"},
		{"break too long", "MAX_BREAK_MINUTES", "2000"},
		{"unknown storage", "STORAGE_DRIVER", "mongo"},
		{"unknown lock", "LOCK_DRIVER", "zookeeper"},
		{"bad timezone", "APP_TIMEZONE", "Mars/Olympus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingSecrets(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("JWT_SECRET_KEY", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET_KEY")
}

func TestDatabaseURL(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable",
	}}

	assert.Equal(t, "postgres://u:p@db:5432/n?sslmode=disable", cfg.DatabaseURL())
}
