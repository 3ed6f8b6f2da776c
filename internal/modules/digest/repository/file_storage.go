package repository

import (
	"cmp"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/reshetovitsme/news-digest-bot/internal/modules/digest/domain"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// FileStorage implements digest.Repository using file system
type FileStorage struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStorage creates a new file-based digest repository
func NewFileStorage(basePath string) (*FileStorage, error) {
	digestPath := filepath.Join(basePath, "digests")
	if err := os.MkdirAll(digestPath, 0755); err != nil {
		return nil, oops.With("base_path", basePath, "context", "failed to create digests directory").Wrap(err)
	}

	return &FileStorage{basePath: digestPath}, nil
}

func (s *FileStorage) chatDir(chatID int64) string {
	return filepath.Join(s.basePath, strconv.FormatInt(chatID, 10))
}

func (s *FileStorage) SaveDigest(digest *domain.Digest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Digests live in chat-specific directories
	dir := s.chatDir(digest.ChatID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return oops.With("digest_dir", dir, "context", "failed to create digest directory").Wrap(err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%d.json", digest.ID))
	data, err := json.MarshalIndent(digest, "", "  ")
	if err != nil {
		return oops.With("chat_id", digest.ChatID, "digest_id", digest.ID, "context", "failed to marshal digest").Wrap(err)
	}

	return os.WriteFile(path, data, 0644)
}

func (s *FileStorage) GetDigests(chatID int64, limit int) ([]*domain.Digest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	digests, err := s.readAll(chatID)
	if err != nil {
		return nil, err
	}
	return lo.Slice(digests, 0, limit), nil
}

func (s *FileStorage) GetRecentDigests(chatID int64, since time.Time) ([]*domain.Digest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	digests, err := s.readAll(chatID)
	if err != nil {
		return nil, err
	}
	return lo.Filter(digests, func(d *domain.Digest, _ int) bool {
		return d.CreatedAt.After(since)
	}), nil
}

// readAll loads every digest of the chat, newest first; unreadable files are skipped
func (s *FileStorage) readAll(chatID int64) ([]*domain.Digest, error) {
	dir := s.chatDir(chatID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*domain.Digest{}, nil
		}
		return nil, oops.With("chat_id", chatID, "digest_dir", dir, "context", "failed to read digests directory").Wrap(err)
	}

	digests := make([]*domain.Digest, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var digest domain.Digest
		if err := json.Unmarshal(data, &digest); err != nil {
			slog.Warn("Skipping corrupt digest file", "path", path, "error", err)
			continue
		}
		digests = append(digests, &digest)
	}

	// file names are not zero padded, so order by the record itself
	slices.SortStableFunc(digests, func(a, b *domain.Digest) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return digests, nil
}
