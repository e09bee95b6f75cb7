// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for databases and vector store files (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	// Embedding provider (Gemini)
	GeminiAPIKey     string
	EmbeddingModel   string        // e.g. "text-embedding-004"
	EmbedInterval    time.Duration // Minimum delay between outbound embedding calls
	EmbedCallTimeout time.Duration // Per-call timeout for embedding requests

	// Virtual trading
	StartingCash float64 // Virtual cash granted to new paper-trading portfolios

	Backup *BackupConfig
}

// BackupConfig holds cloud backup configuration.
// Backups target any S3-compatible storage (AWS S3, Cloudflare R2, MinIO).
type BackupConfig struct {
	Enabled   bool
	Endpoint  string // Custom endpoint URL, empty for AWS S3
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Keep      int // Number of remote backups to retain
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic
	// 1. Check SARAL_DATA_DIR environment variable
	// 2. If not set, default to ./data
	// 3. Always resolve to absolute path
	// 4. Ensure directory exists
	dataDir := getEnv("SARAL_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:          absDataDir,
		Port:             getEnvAsInt("PORT", 8080),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-004"),
		EmbedInterval:    time.Duration(getEnvAsInt("EMBED_INTERVAL_MS", 1200)) * time.Millisecond,
		EmbedCallTimeout: time.Duration(getEnvAsInt("EMBED_TIMEOUT_SECONDS", 30)) * time.Second,
		StartingCash:     float64(getEnvAsInt("VIRTUAL_STARTING_CASH", 1000000)),
		Backup:           loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	// GEMINI_API_KEY is optional: without it document ingestion is disabled
	// but scoring, search over existing data, and virtual trading still work.
	if c.Backup != nil && c.Backup.Enabled {
		if c.Backup.Bucket == "" {
			return fmt.Errorf("BACKUP_BUCKET is required when backups are enabled")
		}
		if c.Backup.AccessKey == "" || c.Backup.SecretKey == "" {
			return fmt.Errorf("BACKUP_ACCESS_KEY and BACKUP_SECRET_KEY are required when backups are enabled")
		}
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// loadBackupConfig loads cloud backup configuration
func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Enabled:   getEnvAsBool("BACKUP_ENABLED", false),
		Endpoint:  getEnv("BACKUP_ENDPOINT", ""),
		Region:    getEnv("BACKUP_REGION", "auto"),
		Bucket:    getEnv("BACKUP_BUCKET", ""),
		AccessKey: getEnv("BACKUP_ACCESS_KEY", ""),
		SecretKey: getEnv("BACKUP_SECRET_KEY", ""),
		Keep:      getEnvAsInt("BACKUP_KEEP", 7),
	}
}
