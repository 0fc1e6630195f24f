package repository

import (
	"context"
	"database/sql"
	"errors"

	"user-session-api/internal/apperr"
	"user-session-api/internal/db"
	"user-session-api/internal/user/domain"
)

// PostgresRepository persists users. It runs on a db.DBTX, so the same
// repository works against the pool or inside a transaction.
type PostgresRepository struct {
	q db.DBTX
}

// NewPostgresRepository returns a user repository bound to q.
func NewPostgresRepository(q db.DBTX) *PostgresRepository {
	return &PostgresRepository{q: q}
}

const userColumns = `id, uuid, created_at, username, password`

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.UUID, &u.CreatedAt, &u.Username, &u.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByUUID returns the user for uuid, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByUUID(ctx context.Context, uuid string) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE uuid = $1`, uuid)
	return scanUser(row)
}

// GetByUsername returns the user for username, or nil if not found.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// List returns all users ordered by id.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.UUID, &u.CreatedAt, &u.Username, &u.Password); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

// Create inserts the user and fills in the database-assigned id. A
// duplicate username surfaces as a Conflict error.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO users (uuid, created_at, username, password) VALUES ($1, $2, $3, $4) RETURNING id`,
		u.UUID, u.CreatedAt, u.Username, u.Password,
	).Scan(&u.ID)
	return apperr.FromPostgres(err)
}

// Update persists the mutable fields of an already-validated user.
func (r *PostgresRepository) Update(ctx context.Context, u *domain.User) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users SET username = $1, password = $2 WHERE uuid = $3`,
		u.Username, u.Password, u.UUID,
	)
	return apperr.FromPostgres(err)
}

// Delete removes the user row; the session row cascades.
func (r *PostgresRepository) Delete(ctx context.Context, uuid string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE uuid = $1`, uuid)
	return err
}
