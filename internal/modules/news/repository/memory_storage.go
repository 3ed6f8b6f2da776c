package repository

import "context"

// MemoryStorage keeps seen URLs for the lifetime of the process. It never
// evicts, so a long-lived instance grows without bound until Clear is called.
type MemoryStorage struct {
	seen map[string]struct{}
}

// NewMemoryStorage creates an empty in-memory horizon
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{seen: make(map[string]struct{})}
}

// NewMemoryFactory returns a Factory producing independent in-memory horizons
func NewMemoryFactory() Factory {
	return func(string) Repository {
		return NewMemoryStorage()
	}
}

func (s *MemoryStorage) MarkIfNew(_ context.Context, url string) (bool, error) {
	if _, ok := s.seen[url]; ok {
		return false, nil
	}
	s.seen[url] = struct{}{}
	return true, nil
}

func (s *MemoryStorage) Len(_ context.Context) (int, error) {
	return len(s.seen), nil
}

func (s *MemoryStorage) Clear(_ context.Context) error {
	s.seen = make(map[string]struct{})
	return nil
}
