package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/history"
)

// RedisStore keeps turns as JSON strings in a sorted set scored by time.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string        // Redis server address (e.g., "localhost:6379")
	Password string        // Redis password (if any)
	DB       int           // Redis database number
	Prefix   string        // Key prefix for namespacing
	TTL      time.Duration // Expiry of individual turn keys (0 keeps them)
}

// DefaultRedisConfig returns local development settings.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:   "localhost:6379",
		Prefix: "course-advisor:history:",
	}
}

// NewRedisStore creates a Redis-backed history store.
func NewRedisStore(config *RedisConfig) *RedisStore {
	if config == nil {
		config = DefaultRedisConfig()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	return &RedisStore{client: client, prefix: config.Prefix, ttl: config.TTL}
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "index"
}

func (s *RedisStore) turnKey(id string) string {
	return s.prefix + "turn:" + id
}

// Record stores turn and indexes it by creation time.
func (s *RedisStore) Record(ctx context.Context, turn *history.Turn) error {
	if turn == nil {
		return fmt.Errorf("turn cannot be nil")
	}
	history.Prepare(turn)

	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to marshal turn: %w", err)
	}

	key := s.turnKey(turn.ID)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(turn.CreatedAt.UnixNano()), Member: key})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store turn in Redis: %w", err)
	}
	return nil
}

// Recent returns up to limit turns, newest first.
func (s *RedisStore) Recent(ctx context.Context, limit int) ([]*history.Turn, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	keys, err := s.client.ZRevRange(ctx, s.indexKey(), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list turn keys: %w", err)
	}

	turns := make([]*history.Turn, 0, len(keys))
	for _, key := range keys {
		data, err := s.client.Get(ctx, key).Result()
		if err != nil {
			if err == redis.Nil {
				// expired
				s.client.ZRem(ctx, s.indexKey(), key)
				continue
			}
			return nil, fmt.Errorf("failed to get turn: %w", err)
		}
		var turn history.Turn
		if err := json.Unmarshal([]byte(data), &turn); err != nil {
			return nil, fmt.Errorf("failed to unmarshal turn: %w", err)
		}
		turns = append(turns, &turn)
	}
	return turns, nil
}

// Count returns the number of indexed turns.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.ZCard(ctx, s.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count turns: %w", err)
	}
	return int(n), nil
}

// Clear deletes every turn and the index.
func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to list turn keys: %w", err)
	}
	keys = append(keys, s.indexKey())
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete turns: %w", err)
	}
	return nil
}

// Ping checks if the Redis connection is alive
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close(ctx context.Context) error {
	return s.client.Close()
}
