package repository

import "github.com/reshetovitsme/news-digest-bot/internal/modules/usage/domain"

// Repository defines the interface for usage statistics persistence
type Repository interface {
	Load() (*domain.Stats, error)
	Save(stats *domain.Stats) error
}
