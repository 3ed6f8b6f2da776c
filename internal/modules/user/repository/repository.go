package repository

import (
	"context"

	"github.com/reshetovitsme/news-digest-bot/internal/modules/user/domain"
)

// Repository defines the interface for user data persistence.
// SaveUser stores the whole aggregate, preferences included.
type Repository interface {
	SaveUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	GetAllUsers(ctx context.Context) ([]*domain.User, error)
	Close() error
}
