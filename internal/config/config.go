// Package config provides configuration management for the account tracker.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Exchange ExchangeConfig
	Tracker  TrackerConfig
	Publish  PublishConfig
	Logging  LoggingConfig
}

// ServerConfig holds dashboard server configuration
type ServerConfig struct {
	Host string
	Port string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres PostgresConfig
	Redis    RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
	CacheTTL       time.Duration
}

// ExchangeConfig holds exchange API configuration
type ExchangeConfig struct {
	BaseURL           string
	AuthToken         string
	OwnerAddress      string // L1 address used for sub-account discovery
	RequestsPerSecond float64
	Timeout           time.Duration
}

// TrackerConfig holds the aggregation run configuration
type TrackerConfig struct {
	// AccountIDs is the ordered set of accounts to aggregate.
	// The first entry is the main account (labeling only).
	AccountIDs []string
	// MaxConcurrentQueries bounds the per-account query fan-out.
	MaxConcurrentQueries int
	// BackfillDefaultValue seeds historical dates when the store is empty
	// at first run.
	BackfillDefaultValue decimal.Decimal
	// BackfillStartDate is the first date to seed; zero disables backfill.
	BackfillStartDate time.Time
}

// PublishConfig holds artifact publication configuration
type PublishConfig struct {
	RepoPath     string // git working tree; empty disables git publishing
	ArtifactName string
	Branch       string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		// .env file is optional - environment variables can be set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	backfillDefault, err := decimal.NewFromString(getEnv("BACKFILL_DEFAULT_VALUE", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid BACKFILL_DEFAULT_VALUE: %w", err)
	}

	backfillStart, err := parseDate(getEnv("BACKFILL_START_DATE", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid BACKFILL_START_DATE: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "account_tracker"),
				User:           getEnv("POSTGRES_USER", "tracker"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 10),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 10),
				CacheTTL:       getEnvAsDuration("REDIS_CACHE_TTL", 20*time.Second),
			},
		},
		Exchange: ExchangeConfig{
			BaseURL:           getEnv("EXCHANGE_BASE_URL", "https://mainnet.zklighter.elliot.ai"),
			AuthToken:         getEnv("EXCHANGE_AUTH_TOKEN", ""),
			OwnerAddress:      getEnv("EXCHANGE_OWNER_ADDRESS", ""),
			RequestsPerSecond: getEnvAsFloat("EXCHANGE_REQUESTS_PER_SECOND", 3.0),
			Timeout:           getEnvAsDuration("EXCHANGE_TIMEOUT", 15*time.Second),
		},
		Tracker: TrackerConfig{
			AccountIDs:           splitList(getEnv("ACCOUNT_IDS", "")),
			MaxConcurrentQueries: getEnvAsInt("MAX_CONCURRENT_QUERIES", 4),
			BackfillDefaultValue: backfillDefault,
			BackfillStartDate:    backfillStart,
		},
		Publish: PublishConfig{
			RepoPath:     getEnv("PUBLISH_REPO_PATH", ""),
			ArtifactName: getEnv("PUBLISH_ARTIFACT_NAME", "index.html"),
			Branch:       getEnv("PUBLISH_BRANCH", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, nil
}

// Validate checks the configuration required by the fetch cycle.
func (c *Config) Validate() error {
	if c.Exchange.BaseURL == "" {
		return fmt.Errorf("EXCHANGE_BASE_URL is required")
	}
	if len(c.Tracker.AccountIDs) == 0 && c.Exchange.OwnerAddress == "" {
		return fmt.Errorf("either ACCOUNT_IDS or EXCHANGE_OWNER_ADDRESS must be set")
	}
	return nil
}

// PostgresURL builds the connection URL used by migrations.
func (c *PostgresConfig) PostgresURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database,
	)
}

// splitList splits a comma-separated list, trimming whitespace and dropping
// empty entries.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// parseDate parses a YYYY-MM-DD date; empty input yields the zero time.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", value)
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
