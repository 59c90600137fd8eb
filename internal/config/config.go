package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	App          AppConfig
	Timekeeping  TimekeepingConfig
	Notification NotificationConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	LockTTL  time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret                string
	AccessTokenExpiration string
	AcceptableSkew        time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	Timezone       string
	StorageDriver  string // postgres | memory
	LockDriver     string // memory | redis
	AllowedOrigins []string
}

// TimekeepingConfig carries every business threshold of the engine.
type TimekeepingConfig struct {
	CorrectionEscalationDays int
	MaxBreakMinutes          int
	LatenessWindowDays       int
	LatenessThreshold        int
	LatenessPolicyName       string
	ReviewerID               string
	AdHocDeadlineHours       int
	PayrollCutoffLeadDays    int
	ShiftExpiryNoticeDays    int
	HolidayCalendar          string
	MaintenanceSchedule      string
}

type NotificationConfig struct {
	BatchSize     int
	FlushInterval time.Duration
	WorkerCount   int
	QueueSize     int
}

func Load() (*Config, error) {
	// A missing .env is fine; the environment may already be populated.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config := &Config{}
	var errs []error

	// Database configuration
	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432, &errs),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "hris-timekeeping"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(getEnvInt("DB_MAX_CONNS", 25, &errs)),
		MinConns: int32(getEnvInt("DB_MIN_CONNS", 5, &errs)),
	}

	// Redis configuration
	config.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnvInt("REDIS_PORT", 6379, &errs),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0, &errs),
		LockTTL:  getEnvDuration("REDIS_LOCK_TTL", 30*time.Second, &errs),
	}

	// Application configuration
	config.App = AppConfig{
		Port:           getEnvInt("APP_PORT", 8080, &errs),
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Timezone:       getEnv("APP_TIMEZONE", "Asia/Jakarta"),
		StorageDriver:  getEnv("STORAGE_DRIVER", "postgres"),
		LockDriver:     getEnv("LOCK_DRIVER", "memory"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:                getEnv("JWT_SECRET_KEY", ""),
		AccessTokenExpiration: getEnv("JWT_ACCESS_TOKEN_EXPIRATION", "15m"),
		AcceptableSkew:        getEnvDuration("JWT_ACCEPTABLE_SKEW", 30*time.Second, &errs),
	}

	// Timekeeping configuration
	config.Timekeeping = TimekeepingConfig{
		CorrectionEscalationDays: getEnvInt("CORRECTION_ESCALATION_DAYS", 7, &errs),
		MaxBreakMinutes:          getEnvInt("MAX_BREAK_MINUTES", 180, &errs),
		LatenessWindowDays:       getEnvInt("LATENESS_WINDOW_DAYS", 90, &errs),
		LatenessThreshold:        getEnvInt("LATENESS_THRESHOLD", 3, &errs),
		LatenessPolicyName:       getEnv("LATENESS_POLICY_NAME", "repeated_lateness"),
		ReviewerID:               getEnv("LATENESS_REVIEWER_ID", ""),
		AdHocDeadlineHours:       getEnvInt("ADHOC_DEADLINE_HOURS", 48, &errs),
		PayrollCutoffLeadDays:    getEnvInt("PAYROLL_CUTOFF_LEAD_DAYS", 3, &errs),
		ShiftExpiryNoticeDays:    getEnvInt("SHIFT_EXPIRY_NOTICE_DAYS", 7, &errs),
		HolidayCalendar:          getEnv("HOLIDAY_CALENDAR", "none"),
		MaintenanceSchedule:      getEnv("MAINTENANCE_SCHEDULE", "@every 15m"),
	}

	// Notification worker configuration
	config.Notification = NotificationConfig{
		BatchSize:     getEnvInt("NOTIFICATION_BATCH_SIZE", 100, &errs),
		FlushInterval: getEnvDuration("NOTIFICATION_FLUSH_INTERVAL", 5*time.Second, &errs),
		WorkerCount:   getEnvInt("NOTIFICATION_WORKERS", 3, &errs),
		QueueSize:     getEnvInt("NOTIFICATION_QUEUE_SIZE", 10000, &errs),
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.StorageDriver != "postgres" && c.App.StorageDriver != "memory" {
		return fmt.Errorf("STORAGE_DRIVER must be postgres or memory")
	}
	if c.App.LockDriver != "memory" && c.App.LockDriver != "redis" {
		return fmt.Errorf("LOCK_DRIVER must be memory or redis")
	}
	if c.App.StorageDriver == "postgres" && c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("APP_TIMEZONE is invalid: %w", err)
	}
	return c.Timekeeping.Validate()
}

// Validate checks the business thresholds.
func (t TimekeepingConfig) Validate() error {
	switch {
	case t.CorrectionEscalationDays < 1:
		return fmt.Errorf("CORRECTION_ESCALATION_DAYS must be at least 1")
	case t.MaxBreakMinutes < 1 || t.MaxBreakMinutes > 24*60:
		return fmt.Errorf("MAX_BREAK_MINUTES must be between 1 and 1440")
	case t.LatenessWindowDays < 1:
		return fmt.Errorf("LATENESS_WINDOW_DAYS must be at least 1")
	case t.LatenessThreshold < 1:
		return fmt.Errorf("LATENESS_THRESHOLD must be at least 1")
	case t.LatenessPolicyName == "":
		return fmt.Errorf("LATENESS_POLICY_NAME is required")
	case t.AdHocDeadlineHours < 1:
		return fmt.Errorf("ADHOC_DEADLINE_HOURS must be at least 1")
	case t.PayrollCutoffLeadDays < 0:
		return fmt.Errorf("PAYROLL_CUTOFF_LEAD_DAYS must not be negative")
	case t.ShiftExpiryNoticeDays < 0:
		return fmt.Errorf("SHIFT_EXPIRY_NOTICE_DAYS must not be negative")
	case t.MaintenanceSchedule == "":
		return fmt.Errorf("MAINTENANCE_SCHEDULE is required")
	}
	return nil
}

// Location returns the timezone all local wall-clock input is interpreted in.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.App.Timezone)
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// RedisAddr returns host:port for the Redis client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvInt(key string, fallback int, errs *[]error) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return d
}

// getEnvList splits a comma separated value, dropping empty entries.
func getEnvList(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
