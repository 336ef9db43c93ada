package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gorm.io/gorm/logger"

	"mealshare_echo/internal/services"
)

// Config holds the configuration for the server and the worker.
type Config struct {
	DatabaseURL string
	DBLogLevel  logger.LogLevel
	Port        string
	RedisURL    string
	Env         string

	FirebaseCredentialsPath string

	// Live updates
	HubBufferSize int
	SSEHeartbeat  time.Duration

	WorkerInterval time.Duration
}

// IsProduction reports whether cookies should be marked Secure.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credPath == "" {
		credPath = "./firebase-service-account.json"
	}

	bufferSize := 16
	if v := os.Getenv("HUB_BUFFER_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("HUB_BUFFER_SIZE must be a positive integer, got %q", v)
		}
		bufferSize = n
	}

	heartbeat, err := durationFromEnv("SSE_HEARTBEAT", 25*time.Second)
	if err != nil {
		return nil, err
	}
	workerInterval, err := durationFromEnv("WORKER_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	return &Config{
		DatabaseURL:             databaseURL,
		DBLogLevel:              services.ParseLogLevel(os.Getenv("DB_LOG_LEVEL")),
		Port:                    port,
		RedisURL:                os.Getenv("REDIS_URL"),
		Env:                     os.Getenv("ENV"),
		FirebaseCredentialsPath: credPath,
		HubBufferSize:           bufferSize,
		SSEHeartbeat:            heartbeat,
		WorkerInterval:          workerInterval,
	}, nil
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}
