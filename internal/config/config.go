// Package config loads service configuration from environment variables.
package config

import (
	"os"
	"strings"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

// DatabaseConfig holds the Postgres connection string. An empty URL disables
// all persistence operations; the service then runs fully in memory.
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds the snapshot cache connection. An empty URL disables the
// cache.
type RedisConfig struct {
	URL string
}

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        getEnv("TRACKER_ADDR", ":8090"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
	}
}

// PersistenceEnabled reports whether a store connection is configured.
func (c *Config) PersistenceEnabled() bool {
	return c.Database.URL != ""
}

// CacheEnabled reports whether a snapshot cache connection is configured.
func (c *Config) CacheEnabled() bool {
	return c.Redis.URL != ""
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
