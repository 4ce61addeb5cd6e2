package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Auth    AuthConfig
	Storage StorageConfig
	Gateway GatewayConfig
	Dataset DatasetConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	StateTopicName     string
}

type AuthConfig struct {
	JWTSecret   string
	TokenExpiry time.Duration
}

type StorageConfig struct {
	RedisURL  string
	KeyPrefix string
}

type GatewayConfig struct {
	Mode    string // "mock" or "http"
	BaseURL string
	Timeout time.Duration
}

type DatasetConfig struct {
	// Instant collapses every simulated delay to zero. Tests set it.
	Instant bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			StateTopicName:     getEnv("STATE_TOPIC_NAME", "STATE_EVENTS"),
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", "kiwi-dev-secret"),
			TokenExpiry: getEnvAsDuration("JWT_TOKEN_EXPIRY", 24*time.Hour),
		},
		Storage: StorageConfig{
			RedisURL:  getEnv("REDIS_URL", ""),
			KeyPrefix: getEnv("STORAGE_KEY_PREFIX", "ceo_assistant"),
		},
		Gateway: GatewayConfig{
			Mode:    getEnv("GATEWAY_MODE", "mock"),
			BaseURL: getEnv("GATEWAY_BASE_URL", "http://localhost:8000"),
			Timeout: getEnvAsDuration("GATEWAY_TIMEOUT", 30*time.Second),
		},
		Dataset: DatasetConfig{
			Instant: getEnvAsBool("DATASET_INSTANT_STAGES", false),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
