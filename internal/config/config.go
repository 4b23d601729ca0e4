package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	LockTimeout time.Duration
}

// Load reads the .env file if present and falls back to system environment
// variables. Missing DB_URL switches the server to the in-memory backend.
func Load() (*Config, bool) {
	envLoaded := godotenv.Load() == nil

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DB_URL", ""),
		LockTimeout: getDurationEnv("LOCK_TIMEOUT", 5*time.Second),
	}, envLoaded
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
