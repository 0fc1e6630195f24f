package repository

import (
	"context"

	"user-session-api/internal/audit/domain"
	"user-session-api/internal/db"
)

// PostgresRepository persists audit logs.
type PostgresRepository struct {
	q db.DBTX
}

// NewPostgresRepository returns an audit log repository bound to q.
func NewPostgresRepository(q db.DBTX) *PostgresRepository {
	return &PostgresRepository{q: q}
}

// Create inserts the audit entry. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO audit_logs (id, user_uuid, action, resource, ip, metadata, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.UserUUID, a.Action, a.Resource, a.IP, a.Metadata, a.CreatedAt,
	)
	return err
}

// ListByUser returns audit entries for userUUID, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userUUID string, limit, offset int32) ([]*domain.AuditLog, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, user_uuid, action, resource, ip, metadata, created_at FROM audit_logs WHERE user_uuid = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userUUID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.AuditLog
	for rows.Next() {
		var a domain.AuditLog
		if err := rows.Scan(&a.ID, &a.UserUUID, &a.Action, &a.Resource, &a.IP, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
