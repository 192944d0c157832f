// Package config loads service configuration from the environment so main
// stays lean. Every knob has a development default; production overrides
// through SCANGATE_* variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "scangate/pkg/platform/strings"
)

// Config captures everything the server needs at startup.
type Config struct {
	Addr string

	// DatabaseURL selects the Postgres stores; empty falls back to the
	// in-memory stores for local development.
	DatabaseURL string

	Redis RedisConfig

	// KafkaBrokers enables the Kafka audit sink when non-empty.
	KafkaBrokers []string
	AuditTopic   string

	// Timezone is the institution's local zone; every window decision and
	// day boundary is computed in it.
	Timezone string

	JWTSigningKey string
	JWTIssuer     string

	ResolveTimeout  time.Duration
	WriteTimeout    time.Duration
	StudentCacheTTL time.Duration
	ShutdownTimeout time.Duration

	SeedDemoData bool
}

// RedisConfig captures the student directory cache settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:        envString("SCANGATE_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		KafkaBrokers:    envList("KAFKA_BROKERS"),
		AuditTopic:      envString("SCANGATE_AUDIT_TOPIC", "attendance.audit"),
		Timezone:        envString("SCANGATE_TIMEZONE", "Asia/Manila"),
		JWTSigningKey:   envString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:       envString("JWT_ISSUER", "scangate"),
		ResolveTimeout:  envDuration("SCANGATE_RESOLVE_TIMEOUT", 3*time.Second),
		WriteTimeout:    envDuration("SCANGATE_WRITE_TIMEOUT", 5*time.Second),
		StudentCacheTTL: envDuration("SCANGATE_STUDENT_CACHE_TTL", 10*time.Minute),
		ShutdownTimeout: envDuration("SCANGATE_SHUTDOWN_TIMEOUT", 10*time.Second),
		SeedDemoData:    os.Getenv("SCANGATE_SEED_DEMO") == "true",
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	return platformstrings.DedupeAndTrim(strings.Split(v, ","))
}
