package repository

import (
	"time"

	"github.com/reshetovitsme/news-digest-bot/internal/modules/digest/domain"
)

// Repository defines the interface for digest persistence
type Repository interface {
	SaveDigest(digest *domain.Digest) error
	// GetDigests returns up to limit digests for the chat, newest first
	GetDigests(chatID int64, limit int) ([]*domain.Digest, error)
	GetRecentDigests(chatID int64, since time.Time) ([]*domain.Digest, error)
}
