package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	API      APIConfig
}

type DatabaseConfig struct {
	// URL is either a postgres://... DSN or a path to the SQLite file.
	URL             string
	MaxConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

type APIConfig struct {
	IngestRateLimit  int // requests per minute per client IP on the ingest endpoint
	StatsTopDomains  int
	DefaultListLimit int
	MaxListLimit     int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", "post_monitor.db"),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
		},
		API: APIConfig{
			IngestRateLimit:  getEnvAsInt("INGEST_RATE_LIMIT", 120),
			StatsTopDomains:  getEnvAsInt("STATS_TOP_DOMAINS", 10),
			DefaultListLimit: getEnvAsInt("LIST_DEFAULT_LIMIT", 100),
			MaxListLimit:     getEnvAsInt("LIST_MAX_LIMIT", 1000),
		},
	}

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL cannot be empty")
	}
	if cfg.API.StatsTopDomains < 1 {
		return nil, fmt.Errorf("STATS_TOP_DOMAINS must be at least 1")
	}

	return cfg, nil
}

// IsPostgres reports whether the database URL points at a Postgres server
// rather than a SQLite file. The original deployment accepted the Vercel-style
// postgres:// form alongside postgresql://.
func (c *DatabaseConfig) IsPostgres() bool {
	return strings.HasPrefix(c.URL, "postgres://") || strings.HasPrefix(c.URL, "postgresql://")
}

// SQLitePath returns the on-disk file path for the SQLite backend,
// stripping an optional sqlite:// scheme prefix.
func (c *DatabaseConfig) SQLitePath() string {
	path := c.URL
	path = strings.TrimPrefix(path, "sqlite://")
	path = strings.TrimPrefix(path, "sqlite:")
	return path
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{} // Default to no origins in production
		}
		origins := strings.Split(originsStr, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		return origins
	}

	// Development: allow localhost variants plus extension origins
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
		"chrome-extension://*",
	}
}
