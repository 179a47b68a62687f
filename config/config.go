package config

import (
	"os"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	// Server
	ServerPort  string
	MaxUploadMB int64

	// Database; empty selects the in-memory job registry.
	DatabaseURL string

	// Storage
	TempDir     string
	ScoreBucket string
	AWSRegion   string

	// Workers
	Workers   int
	QueueSize int
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		MaxUploadMB: int64(getEnvInt("MAX_UPLOAD_MB", 25)),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		TempDir:     getEnv("TEMP_DIR", ""),
		ScoreBucket: getEnv("SCORE_BUCKET", ""),
		AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
		Workers:     getEnvInt("WORKERS", 4),
		QueueSize:   getEnvInt("QUEUE_SIZE", 64),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
