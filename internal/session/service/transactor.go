package service

import (
	"context"
	"database/sql"

	"user-session-api/internal/db"
	sessionrepo "user-session-api/internal/session/repository"
	userrepo "user-session-api/internal/user/repository"
)

// PgTxRunner implements TxRunner over a *sql.DB: one transaction per
// call, repositories rebound to it.
type PgTxRunner struct {
	conn *sql.DB
}

// NewPgTxRunner returns a TxRunner backed by conn.
func NewPgTxRunner(conn *sql.DB) *PgTxRunner {
	return &PgTxRunner{conn: conn}
}

// RunInTx begins a transaction, hands fn repositories bound to it, and
// commits on nil. Errors from fn roll back and propagate unchanged.
func (r *PgTxRunner) RunInTx(ctx context.Context, fn func(users UserRepo, sessions SessionRepo) error) error {
	return db.InTx(ctx, r.conn, func(tx db.DBTX) error {
		return fn(userrepo.NewPostgresRepository(tx), sessionrepo.NewPostgresRepository(tx))
	})
}
