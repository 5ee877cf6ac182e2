package repository

import (
	"context"

	"github.com/Alschn/Beerdegu/internal/domain"
)

// UserRepository stores accounts.
type UserRepository interface {
	// FindByUsername returns ErrUserNotFound when absent.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// Save creates or updates. A taken username yields ErrDuplicateEntry.
	Save(ctx context.Context, user *domain.User) error
}
