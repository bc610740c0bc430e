package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"nutrichef/internal/logger"
)

// RedisStore keeps each collection in the string key <prefix>:<collection>.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to the server at url and verifies the connection.
func NewRedisStore(ctx context.Context, url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreFromClient(client, prefix), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "nutrichef"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(c Collection) string {
	return s.prefix + ":" + string(c)
}

// Load reads the collection key. A missing key leaves dst untouched.
func (s *RedisStore) Load(ctx context.Context, c Collection, dst any) error {
	data, err := s.client.Get(ctx, s.key(c)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			logger.Debug("collection key missing", zap.String("key", s.key(c)))
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", c, err)
	}

	logger.Debug("collection loaded", zap.String("key", s.key(c)), zap.Int("bytes", len(data)))
	return decode(c, data, dst)
}

// Save overwrites the collection key.
func (s *RedisStore) Save(ctx context.Context, c Collection, records any) error {
	body, err := encode(records)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(c), body, 0).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", c, err)
	}

	logger.Debug("collection saved", zap.String("key", s.key(c)), zap.Int("bytes", len(body)))
	return nil
}

// SaveAll writes every collection inside one MULTI/EXEC block.
func (s *RedisStore) SaveAll(ctx context.Context, writes ...Write) error {
	pipe := s.client.TxPipeline()
	for _, w := range writes {
		body, err := encode(w.Records)
		if err != nil {
			return err
		}
		pipe.Set(ctx, s.key(w.Collection), body, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save collections: %w", err)
	}

	logger.Debug("collections saved", zap.Int("count", len(writes)))
	return nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
