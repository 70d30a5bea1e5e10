// Package config reads process-level settings from the environment. Consent
// settings (texts, purposes, cookie) live in a YAML file whose path is one of
// these values; see internal/consent/config.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends for the consent slot.
const (
	StorageCookie   = "cookie"
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    slog.Level
	ConfigFile  string
	Storage     string
	Cookie      CookieConfig
	Redis       RedisConfig
	Database    DatabaseConfig
	// TransitionTimeout bounds a consent write when the request carries no deadline.
	TransitionTimeout time.Duration
}

// CookieConfig controls the attributes of cookies the consent handler writes.
type CookieConfig struct {
	Secure bool
	Domain string
}

// RedisConfig configures the shared Redis slot.
type RedisConfig struct {
	URL          string
	KeyPrefix    string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig configures the PostgreSQL slot.
type DatabaseConfig struct {
	URL             string
	Table           string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// LoadDotEnv loads variables from the given .env files, or ./.env when none
// are named. Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:              getEnv("CONSENT_ADDR", ":8080"),
		Environment:       getEnv("CONSENT_ENV", "development"),
		ConfigFile:        os.Getenv("CONSENT_CONFIG_FILE"),
		Storage:           strings.ToLower(getEnv("CONSENT_STORAGE", StorageCookie)),
		TransitionTimeout: getDuration("CONSENT_TRANSITION_TIMEOUT", 5*time.Second),
		Cookie: CookieConfig{
			Secure: getBool("COOKIE_SECURE", false),
			Domain: os.Getenv("COOKIE_DOMAIN"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			KeyPrefix:    getEnv("REDIS_KEY_PREFIX", "consentkit:"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Table:           getEnv("DATABASE_TABLE", "consent_slots"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return Server{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	switch cfg.Storage {
	case StorageCookie, StorageMemory:
	case StorageRedis:
		if cfg.Redis.URL == "" {
			return Server{}, fmt.Errorf("CONSENT_STORAGE=redis requires REDIS_URL")
		}
	case StoragePostgres:
		if cfg.Database.URL == "" {
			return Server{}, fmt.Errorf("CONSENT_STORAGE=postgres requires DATABASE_URL")
		}
	default:
		return Server{}, fmt.Errorf("unknown CONSENT_STORAGE %q", cfg.Storage)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
