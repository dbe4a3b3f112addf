package store

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/history"
)

// Backend names accepted by Open.
const (
	BackendNone     = "none"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendSQLite   = "sqlite"
)

// Backends lists the accepted backend names.
func Backends() []string {
	return []string{BackendNone, BackendMemory, BackendRedis, BackendPostgres, BackendMongo, BackendSQLite}
}

// Options selects and sizes a backend. Network backends read their
// connection settings from the environment.
type Options struct {
	Backend    string
	SQLitePath string
	MaxTurns   int // in-memory capacity
}

// Open creates the configured store. BackendNone (or "") returns nil.
func Open(ctx context.Context, opts Options) (history.Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendNone:
		return nil, nil
	case BackendMemory:
		return NewInMemoryStore(opts.MaxTurns), nil
	case BackendRedis:
		s := NewRedisStore(RedisConfigFromEnv())
		if err := s.Ping(ctx); err != nil {
			_ = s.Close(ctx)
			return nil, fmt.Errorf("failed to ping Redis: %w", err)
		}
		return s, nil
	case BackendPostgres:
		return NewPostgresStore(ctx, PostgresConfigFromEnv())
	case BackendMongo:
		return NewMongoStore(ctx, MongoConfigFromEnv())
	case BackendSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = getEnv("SQLITE_PATH", defaultSQLitePath)
		}
		return NewSQLiteStore(ctx, path)
	default:
		return nil, fmt.Errorf("unknown history backend %q (want one of %v)", opts.Backend, Backends())
	}
}

// PostgresConfigFromEnv loads PostgreSQL configuration from environment variables
func PostgresConfigFromEnv() *PostgresConfig {
	return &PostgresConfig{
		Host:     getEnv("POSTGRES_HOST", "localhost"),
		Port:     getEnvInt("POSTGRES_PORT", 5432),
		User:     getEnv("POSTGRES_USER", "postgres"),
		Password: getEnv("POSTGRES_PASSWORD", ""),
		DBName:   getEnv("POSTGRES_DB", "course_advisor"),
		SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
	}
}

// RedisConfigFromEnv loads Redis configuration from environment variables
func RedisConfigFromEnv() *RedisConfig {
	return &RedisConfig{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
		Prefix:   getEnv("REDIS_PREFIX", "course-advisor:history:"),
		TTL:      getEnvDuration("REDIS_TTL", 0),
	}
}

// MongoConfigFromEnv loads MongoDB configuration from environment variables
func MongoConfigFromEnv() *MongoConfig {
	return &MongoConfig{
		URI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		Database:   getEnv("MONGODB_DB", "course_advisor"),
		Collection: getEnv("MONGODB_COLLECTION", "turns"),
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
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
