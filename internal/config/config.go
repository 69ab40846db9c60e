package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"
)

type Config struct {
	// Application
	AppEnv   string
	LogLevel string
	HTTPPort string

	// Store
	StoreBackend string

	// Database
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	DBMaxOpenConns int
	DBMaxIdleConns int
	SQLitePath     string

	// DynamoDB
	AWSRegion                string
	DynamoEndpoint           string
	DynamoUsersTable         string
	DynamoRelationshipsTable string

	// Security
	JWTSecret     string
	TokenTTLHours int

	// Telegram, optional
	BotToken string

	// HTTP
	CORSAllowedOrigins []string

	// Rate Limiting
	RateLimitPerUser   int
	RateLimitPerIP     int
	RateLimitWindowSec int

	// Relationship actions
	ActionMaxRetries int
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),

		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "moodgram"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "moodgram"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 100),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 20),
		SQLitePath:     getEnv("SQLITE_PATH", "moodgram.db"),

		AWSRegion:                getEnv("AWS_REGION", "us-east-1"),
		DynamoEndpoint:           getEnv("DYNAMO_ENDPOINT", ""),
		DynamoUsersTable:         getEnv("DYNAMO_USERS_TABLE", "user"),
		DynamoRelationshipsTable: getEnv("DYNAMO_RELATIONSHIPS_TABLE", "relationship"),

		JWTSecret:     getEnv("JWT_SECRET_KEY", ""),
		TokenTTLHours: getEnvInt("TOKEN_TTL_HOURS", 24*7),

		BotToken: getEnv("BOT_TOKEN", ""),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		RateLimitPerUser:   getEnvInt("RATE_LIMIT_PER_USER", 60),
		RateLimitPerIP:     getEnvInt("RATE_LIMIT_PER_IP", 300),
		RateLimitWindowSec: getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),

		ActionMaxRetries: getEnvInt("ACTION_MAX_RETRIES", 5),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendPostgres:
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD is required for the postgres backend")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
		}
	case BackendDynamoDB:
		if c.DynamoUsersTable == "" || c.DynamoRelationshipsTable == "" {
			return fmt.Errorf("DYNAMO_USERS_TABLE and DYNAMO_RELATIONSHIPS_TABLE are required for the dynamodb backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters")
	}
	if c.ActionMaxRetries < 1 {
		return fmt.Errorf("ACTION_MAX_RETRIES must be at least 1")
	}
	if c.TokenTTLHours < 1 {
		return fmt.Errorf("TOKEN_TTL_HOURS must be at least 1")
	}
	return nil
}

func (c *Config) ValidateProductionSecurity() error {
	if c.AppEnv != "production" {
		return nil
	}

	if c.StoreBackend == BackendMemory {
		return fmt.Errorf("STORE_BACKEND=memory is not allowed in production")
	}
	if c.StoreBackend == BackendPostgres && c.DBSSLMode != "require" {
		return fmt.Errorf("DB_SSLMODE must be 'require' in production")
	}
	if c.JWTSecret == "your_jwt_secret_minimum_32_chars_here_change_this" {
		return fmt.Errorf("JWT_SECRET_KEY must be changed from default in production")
	}
	for _, origin := range c.CORSAllowedOrigins {
		if origin == "*" {
			return fmt.Errorf("CORS_ALLOWED_ORIGINS must list explicit origins in production")
		}
	}

	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) GetTokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

func (c *Config) GetRateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSec) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
