package repository

import (
	"context"
	"database/sql"
	"errors"

	"user-session-api/internal/apperr"
	"user-session-api/internal/db"
	"user-session-api/internal/session/domain"
)

// PostgresRepository persists sessions on a db.DBTX (pool or transaction).
type PostgresRepository struct {
	q db.DBTX
}

// NewPostgresRepository returns a session repository bound to q.
func NewPostgresRepository(q db.DBTX) *PostgresRepository {
	return &PostgresRepository{q: q}
}

const sessionColumns = `id, uuid, created_at, user_uuid, token, refreshes`

func scanSession(row *sql.Row) (*domain.Session, error) {
	var s domain.Session
	err := row.Scan(&s.ID, &s.UUID, &s.CreatedAt, &s.UserUUID, &s.Token, &s.Refreshes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByUserUUID returns the session for userUUID, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByUserUUID(ctx context.Context, userUUID string) (*domain.Session, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE user_uuid = $1`, userUUID)
	return scanSession(row)
}

// GetByUserUUIDForUpdate locks the row until the enclosing transaction
// ends, serializing concurrent refreshes for one user.
func (r *PostgresRepository) GetByUserUUIDForUpdate(ctx context.Context, userUUID string) (*domain.Session, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE user_uuid = $1 FOR UPDATE`, userUUID)
	return scanSession(row)
}

// Create inserts the session and fills in the database-assigned id. A
// concurrent insert for the same user surfaces as a Conflict error from
// the unique constraint on user_uuid.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO sessions (uuid, created_at, user_uuid, token, refreshes) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		s.UUID, s.CreatedAt, s.UserUUID, s.Token, s.Refreshes,
	).Scan(&s.ID)
	return apperr.FromPostgres(err)
}

// UpdateToken persists a rotation: the replacement token and the new
// counter value for the session identified by sessionUUID.
func (r *PostgresRepository) UpdateToken(ctx context.Context, sessionUUID, token string, refreshes int) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE sessions SET token = $1, refreshes = $2 WHERE uuid = $3`,
		token, refreshes, sessionUUID,
	)
	return apperr.FromPostgres(err)
}

// DeleteByUserUUID removes the session for userUUID. Deleting an absent
// row is not an error; logout is idempotent at this layer.
func (r *PostgresRepository) DeleteByUserUUID(ctx context.Context, userUUID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM sessions WHERE user_uuid = $1`, userUUID)
	return err
}
