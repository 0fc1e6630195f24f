package repository

import (
	"context"

	"user-session-api/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByUUID(ctx context.Context, uuid string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, uuid string) error
}
