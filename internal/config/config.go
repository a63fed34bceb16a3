package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

// SourceConfig holds basketball-reference client configuration
type SourceConfig struct {
	BaseURL     string
	UserAgent   string
	Timeout     time.Duration
	FirstSeason int
}

// RedisConfig holds optional Redis configuration. An empty URL keeps the
// memo store in process memory and disables stream publishing.
type RedisConfig struct {
	URL       string
	Namespace string
	StreamKey string
}

// AuditConfig holds the optional download audit database
type AuditConfig struct {
	DSN string
}

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	Source SourceConfig
	Redis  RedisConfig
	Audit  AuditConfig
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        getEnv("SERVER_ADDR", ":8090"),
			CORSOrigins: getList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		},
		Source: SourceConfig{
			BaseURL:     getEnv("SOURCE_BASE_URL", "https://www.basketball-reference.com"),
			UserAgent:   getEnv("SOURCE_USER_AGENT", "Mozilla/5.0 (compatible; FortunaStatsExplorer/1.0)"),
			Timeout:     getDuration("SOURCE_TIMEOUT", 30*time.Second),
			FirstSeason: getInt("FIRST_SEASON", 1950),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
			// a fresh namespace per process keeps memo entries scoped to one run
			Namespace: getEnv("CACHE_NAMESPACE", uuid.New().String()),
			StreamKey: getEnv("STREAM_KEY", "stats.events.basketball_nba"),
		},
		Audit: AuditConfig{
			DSN: getEnv("AUDIT_DSN", ""),
		},
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

// getList splits a comma-separated variable, dropping blanks
func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
