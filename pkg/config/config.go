package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	Database DatabaseConfig
	Redis    RedisConfig
	Quote    QuoteConfig
	Website  WebsiteConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// QuoteConfig holds quote builder settings
type QuoteConfig struct {
	ModelPath            string        // optional YAML model file, empty = compiled defaults
	ValidityDays         int           // default valid_until offset
	CreateLimitPerMinute int           // per-user quote creation limit
	SignalCacheTTL       time.Duration // signal bundle cache lifetime
	ExpirySchedule       string        // cron expression (with seconds) for the expiry job
}

// WebsiteConfig controls the live on-page audit used when no stored analysis exists
type WebsiteConfig struct {
	LiveAudit bool
	Timeout   time.Duration
	UserAgent string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 패키지만 os.Getenv()를 호출함
func Load() (*Config, error) {
	cfg := fromEnv()
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("config validation failed: DATABASE_URL is required")
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadOffline is Load without the database requirement, for CLI tools that never connect
func LoadOffline() (*Config, error) {
	cfg := fromEnv()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func fromEnv() *Config {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		Quote: QuoteConfig{
			ModelPath:            getEnv("QUOTE_MODEL_PATH", ""),
			ValidityDays:         getEnvAsInt("QUOTE_VALIDITY_DAYS", 30),
			CreateLimitPerMinute: getEnvAsInt("QUOTE_CREATE_LIMIT_PER_MINUTE", 10),
			SignalCacheTTL:       getEnvAsDuration("SIGNAL_CACHE_TTL", "10m"),
			ExpirySchedule:       getEnv("EXPIRY_SCHEDULE", "0 0 * * * *"),
		},

		Website: WebsiteConfig{
			LiveAudit: getEnvAsBool("WEBSITE_LIVE_AUDIT", false),
			Timeout:   getEnvAsDuration("WEBSITE_AUDIT_TIMEOUT", "15s"),
			UserAgent: getEnv("WEBSITE_AUDIT_USER_AGENT", "GeoReputeBot/1.0"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	return cfg
}

// validate checks value ranges. DATABASE_URL is checked by Load.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Quote.ValidityDays <= 0 {
		return fmt.Errorf("QUOTE_VALIDITY_DAYS must be positive")
	}

	if c.Quote.CreateLimitPerMinute < 0 {
		return fmt.Errorf("QUOTE_CREATE_LIMIT_PER_MINUTE must not be negative")
	}

	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
