package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/reshetovitsme/news-digest-bot/internal/modules/usage/domain"
	"github.com/samber/oops"
)

// FileStorage keeps usage statistics in a single JSON file
type FileStorage struct {
	path string
	mu   sync.Mutex
}

// NewFileStorage creates a new file-based usage repository
func NewFileStorage(basePath string) (*FileStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, oops.With("base_path", basePath, "context", "failed to create data directory").Wrap(err)
	}
	return &FileStorage{path: filepath.Join(basePath, "usage.json")}, nil
}

// Load returns the stored statistics, or an empty record when none exist yet
func (s *FileStorage) Load() (*domain.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewStats(), nil
		}
		return nil, oops.With("path", s.path, "context", "failed to read usage data").Wrap(err)
	}

	stats := domain.NewStats()
	if err := json.Unmarshal(data, stats); err != nil {
		return nil, oops.With("path", s.path, "context", "failed to unmarshal usage data").Wrap(err)
	}
	if stats.Days == nil {
		stats.Days = make(map[string]*domain.DayStats)
	}
	return stats, nil
}

func (s *FileStorage) Save(stats *domain.Stats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return oops.With("context", "failed to marshal usage data").Wrap(err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return oops.With("path", s.path, "context", "failed to write usage data").Wrap(err)
	}
	return os.Rename(tmp, s.path)
}
