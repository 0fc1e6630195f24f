package repository

import (
	"context"

	"user-session-api/internal/session/domain"
)

// Repository defines persistence for sessions.
type Repository interface {
	GetByUserUUID(ctx context.Context, userUUID string) (*domain.Session, error)
	// GetByUserUUIDForUpdate reads the row with a row-level lock. Only
	// meaningful inside a transaction; the read-then-rotate-then-write
	// sequence in the session service depends on it.
	GetByUserUUIDForUpdate(ctx context.Context, userUUID string) (*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	UpdateToken(ctx context.Context, sessionUUID, token string, refreshes int) error
	DeleteByUserUUID(ctx context.Context, userUUID string) error
}
