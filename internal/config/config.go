package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Auth         AuthConfig
	Intelligence IntelligenceConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	OtelEnabled        bool
	OtelEndpoint       string
}

type DatabaseConfig struct {
	Driver     string // "postgres" or "memory"
	Connection string
}

type AuthConfig struct {
	JwtSecret string
	AdminRole string
}

type IntelligenceConfig struct {
	MinRoleConfidence         float64
	MaxSuggestions            int
	IntentConfidenceThreshold float64
	CapabilityTimeout         time.Duration
	LockTTL                   time.Duration
	ContextTTL                time.Duration
	CapabilityLogRetention    time.Duration
	SweepSchedule             string
	SuggestionCatalogPath     string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() *Config {
	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("JWT_SECRET", ""),
			AdminRole: getEnv("ADMIN_ROLE", "admin"),
		},
		Intelligence: IntelligenceConfig{
			MinRoleConfidence:         getEnvAsFloat("MIN_ROLE_CONFIDENCE", 0.7),
			MaxSuggestions:            getEnvAsInt("MAX_SUGGESTIONS", 3),
			IntentConfidenceThreshold: getEnvAsFloat("INTENT_CONFIDENCE_THRESHOLD", 0.7),
			CapabilityTimeout:         getEnvAsDuration("CAPABILITY_TIMEOUT", 3*time.Second),
			LockTTL:                   getEnvAsDuration("LOCK_TTL", 5*time.Second),
			ContextTTL:                getEnvAsDuration("CONTEXT_TTL", 30*24*time.Hour),
			CapabilityLogRetention:    getEnvAsDuration("CAPABILITY_LOG_RETENTION", 90*24*time.Hour),
			SweepSchedule:             getEnv("SWEEP_SCHEDULE", "@hourly"),
			SuggestionCatalogPath:     getEnv("SUGGESTION_CATALOG_PATH", ""),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
