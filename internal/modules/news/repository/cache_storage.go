package repository

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// CacheStorage is a time-windowed horizon: a URL is forgotten once the
// retention period has passed since it was first delivered.
type CacheStorage struct {
	cache     *cache.Cache
	retention time.Duration
}

// NewCacheStorage creates a horizon that remembers URLs for retention
func NewCacheStorage(retention time.Duration) *CacheStorage {
	cleanup := retention / 2
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &CacheStorage{
		cache:     cache.New(retention, cleanup),
		retention: retention,
	}
}

// NewCacheFactory returns a Factory producing independent time-windowed horizons
func NewCacheFactory(retention time.Duration) Factory {
	return func(string) Repository {
		return NewCacheStorage(retention)
	}
}

func (s *CacheStorage) MarkIfNew(_ context.Context, url string) (bool, error) {
	// Add fails when the key exists and has not expired yet
	if err := s.cache.Add(url, struct{}{}, cache.DefaultExpiration); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *CacheStorage) Len(_ context.Context) (int, error) {
	s.cache.DeleteExpired()
	return s.cache.ItemCount(), nil
}

func (s *CacheStorage) Clear(_ context.Context) error {
	s.cache.Flush()
	return nil
}
