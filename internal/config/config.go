package config

import (
	"os"
	"strconv"

	"featurelab/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Upload   UploadConfig
	Pipeline PipelineConfig
	LogLevel string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port              string
	GinMode           string
	MaxConcurrentRuns int
}

// DatabaseConfig selects the run history backend. DATABASE_URL wins over SQLITE_PATH.
type DatabaseConfig struct {
	URL        string
	SQLitePath string
}

// Driver returns the database/sql driver name for the configured backend
func (d DatabaseConfig) Driver() string {
	if d.URL != "" {
		return "postgres"
	}
	return "sqlite"
}

// DSN returns the data source name for the configured backend
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return d.SQLitePath
}

// UploadConfig bounds uploaded datasets
type UploadConfig struct {
	MaxUploadMB int
	MaxFeatures int
}

// PipelineConfig holds reproducibility and estimator settings
type PipelineConfig struct {
	Seed              int64
	TSNEMaxComponents int
	TSNEPerplexity    float64
	TSNEIterations    int
	KMeansRestarts    int
	KMeansMaxIter     int
	SessionTTLMinutes int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:   *loadServerConfig(),
		Database: *loadDatabaseConfig(),
		Upload:   *loadUploadConfig(),
		Pipeline: *loadPipelineConfig(),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:              getEnvOrDefault("PORT", "8080"),
		GinMode:           getEnvOrDefault("GIN_MODE", "debug"),
		MaxConcurrentRuns: getEnvIntOrDefault("MAX_CONCURRENT_RUNS", 4),
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URL:        getEnvOrDefault("DATABASE_URL", ""),
		SQLitePath: getEnvOrDefault("SQLITE_PATH", ":memory:"),
	}
}

func loadUploadConfig() *UploadConfig {
	return &UploadConfig{
		MaxUploadMB: getEnvIntOrDefault("MAX_UPLOAD_MB", 50),
		MaxFeatures: getEnvIntOrDefault("MAX_FEATURES", 100),
	}
}

func loadPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		Seed:              int64(getEnvIntOrDefault("RANDOM_SEED", 0)),
		TSNEMaxComponents: getEnvIntOrDefault("TSNE_MAX_COMPONENTS", 3),
		TSNEPerplexity:    getEnvFloatOrDefault("TSNE_PERPLEXITY", 30),
		TSNEIterations:    getEnvIntOrDefault("TSNE_ITERATIONS", 500),
		KMeansRestarts:    getEnvIntOrDefault("KMEANS_RESTARTS", 10),
		KMeansMaxIter:     getEnvIntOrDefault("KMEANS_MAX_ITER", 300),
		SessionTTLMinutes: getEnvIntOrDefault("SESSION_TTL_MINUTES", 120),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.Server.MaxConcurrentRuns < 1 {
		return errors.ConfigInvalid("MAX_CONCURRENT_RUNS must be at least 1")
	}
	if config.Database.URL == "" && config.Database.SQLitePath == "" {
		return errors.ConfigInvalid("either DATABASE_URL or SQLITE_PATH is required")
	}
	if config.Upload.MaxUploadMB < 1 {
		return errors.ConfigInvalid("MAX_UPLOAD_MB must be positive")
	}
	if config.Upload.MaxFeatures < 1 {
		return errors.ConfigInvalid("MAX_FEATURES must be positive")
	}
	if config.Pipeline.TSNEMaxComponents < 0 {
		return errors.ConfigInvalid("TSNE_MAX_COMPONENTS cannot be negative")
	}
	if config.Pipeline.TSNEPerplexity <= 0 {
		return errors.ConfigInvalid("TSNE_PERPLEXITY must be positive")
	}
	if config.Pipeline.TSNEIterations < 1 || config.Pipeline.KMeansMaxIter < 1 || config.Pipeline.KMeansRestarts < 1 {
		return errors.ConfigInvalid("iteration and restart counts must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
