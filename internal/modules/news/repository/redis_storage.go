package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

const keyPrefix = "newsbot:seen"

// RedisStorage persists the horizon in Redis so that deduplication
// survives restarts. Every URL is stored as its own key with a TTL.
type RedisStorage struct {
	client    *redis.Client
	scope     string
	retention time.Duration
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, oops.Errorf("redis address is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, oops.With("addr", addr, "context", "failed to connect to redis").Wrap(err)
	}

	return client, nil
}

// NewRedisStorage creates a horizon for scope backed by client
func NewRedisStorage(client *redis.Client, scope string, retention time.Duration) *RedisStorage {
	return &RedisStorage{client: client, scope: scope, retention: retention}
}

// NewRedisFactory returns a Factory sharing one client across scopes
func NewRedisFactory(client *redis.Client, retention time.Duration) Factory {
	return func(scope string) Repository {
		return NewRedisStorage(client, scope, retention)
	}
}

func (s *RedisStorage) key(url string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, s.scope, url)
}

func (s *RedisStorage) pattern() string {
	return fmt.Sprintf("%s:%s:*", keyPrefix, s.scope)
}

func (s *RedisStorage) MarkIfNew(ctx context.Context, url string) (bool, error) {
	added, err := s.client.SetNX(ctx, s.key(url), 1, s.retention).Result()
	if err != nil {
		return false, oops.With("scope", s.scope, "url", url).Wrap(err)
	}
	return added, nil
}

func (s *RedisStorage) Len(ctx context.Context) (int, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (s *RedisStorage) Clear(ctx context.Context) error {
	keys, err := s.keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return oops.With("scope", s.scope, "keys", len(keys)).Wrap(err)
	}
	return nil
}

func (s *RedisStorage) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.pattern(), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, oops.With("scope", s.scope, "context", "failed to scan keys").Wrap(err)
	}
	return keys, nil
}
