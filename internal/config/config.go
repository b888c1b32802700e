package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Auth     AuthConfig
	Identity IdentityConfig
	App      AppConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	ConnMaxLifetime time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	AutoMigrate     bool
}

// RedisConfig holds the verification-code cache connection settings
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	CodeTTL  time.Duration
}

// RabbitMQConfig holds the email queue settings. An empty URL disables the queue.
type RabbitMQConfig struct {
	URL           string
	EmailExchange string
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	JWTSecret string
	JWTExpiry time.Duration
	Issuer    string
}

// IdentityConfig holds the identity-verification provider settings.
// An empty BaseURL disables NIN checks at registration.
type IdentityConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Currency                 string
	ReferenceMaxAttempts     int
	NotifyTimeout            time.Duration
	IdempotencyTTL           time.Duration
	ReconcileSchedule        string
	IdempotencyPurgeSchedule string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// Load loads configuration from environment variables (optionally seeded from
// a local .env file) with sensible defaults
func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load() //nolint:errcheck // optional file

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			ReadTimeout:    v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:    v.GetDuration("SERVER_IDLE_TIMEOUT"),
			RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetString("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			AutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			CodeTTL:  v.GetDuration("VERIFICATION_CODE_TTL"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:           v.GetString("RABBITMQ_URL"),
			EmailExchange: v.GetString("EMAIL_EXCHANGE"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
			JWTExpiry: v.GetDuration("JWT_EXPIRY"),
			Issuer:    v.GetString("JWT_ISSUER"),
		},
		Identity: IdentityConfig{
			BaseURL: v.GetString("IDENTITY_BASE_URL"),
			APIKey:  v.GetString("IDENTITY_API_KEY"),
			Timeout: v.GetDuration("IDENTITY_TIMEOUT"),
		},
		App: AppConfig{
			Currency:                 v.GetString("CURRENCY"),
			ReferenceMaxAttempts:     v.GetInt("REFERENCE_MAX_ATTEMPTS"),
			NotifyTimeout:            v.GetDuration("NOTIFY_TIMEOUT"),
			IdempotencyTTL:           v.GetDuration("IDEMPOTENCY_TTL"),
			ReconcileSchedule:        v.GetString("RECONCILE_SCHEDULE"),
			IdempotencyPurgeSchedule: v.GetString("IDEMPOTENCY_PURGE_SCHEDULE"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "60s")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "https://*,http://*")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "ledger")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("VERIFICATION_CODE_TTL", "1h")

	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("EMAIL_EXCHANGE", "notifications")

	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("JWT_EXPIRY", "24h")
	v.SetDefault("JWT_ISSUER", "ledger-bank")

	v.SetDefault("IDENTITY_BASE_URL", "")
	v.SetDefault("IDENTITY_API_KEY", "")
	v.SetDefault("IDENTITY_TIMEOUT", "10s")

	v.SetDefault("CURRENCY", "NGN")
	v.SetDefault("REFERENCE_MAX_ATTEMPTS", 10)
	v.SetDefault("NOTIFY_TIMEOUT", "5s")
	v.SetDefault("IDEMPOTENCY_TTL", "24h")
	v.SetDefault("RECONCILE_SCHEDULE", "@every 1h")
	v.SetDefault("IDEMPOTENCY_PURGE_SCHEDULE", "@every 6h")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host cannot be empty")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database name cannot be empty")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret cannot be empty")
	}
	if c.Auth.JWTExpiry <= 0 {
		return fmt.Errorf("jwt expiry must be positive")
	}

	if c.Redis.CodeTTL <= 0 {
		return fmt.Errorf("verification code ttl must be positive")
	}

	if c.App.ReferenceMaxAttempts < 1 {
		return fmt.Errorf("reference max attempts must be at least 1, got %d", c.App.ReferenceMaxAttempts)
	}
	if len(c.App.Currency) != 3 {
		return fmt.Errorf("currency must be a 3-letter code, got %q", c.App.Currency)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}
	if c.Logger.Format != "json" && c.Logger.Format != "text" {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logger.Format)
	}

	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Addr returns the host:port pair for the Redis client
func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
