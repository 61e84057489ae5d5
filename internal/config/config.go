// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the service reads from the environment.
type Config struct {
	// Port is the HTTP listen port.
	Port string

	// DatabaseURL is the Postgres connection string. When empty the
	// service falls back to the in-memory store.
	DatabaseURL string

	// GeminiModel overrides the extraction model name.
	GeminiModel string

	// BackupBucket is the GCS bucket for daily ledger backups. Empty
	// disables the backup job.
	BackupBucket string

	// BackupHour is the local hour (0-23) the daily backup fires at.
	BackupHour int
}

// Load reads configuration. A missing .env file is not an error.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		GeminiModel:  os.Getenv("GEMINI_MODEL"),
		BackupBucket: os.Getenv("BACKUP_BUCKET"),
		BackupHour:   2,
	}
	if raw := os.Getenv("BACKUP_HOUR"); raw != "" {
		if hour, err := strconv.Atoi(raw); err == nil && hour >= 0 && hour <= 23 {
			cfg.BackupHour = hour
		}
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
