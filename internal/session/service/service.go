// Package service orchestrates the session lifecycle: idempotent login,
// bounded token rotation, logout, and existence checks, all against the
// one-session-per-user invariant.
package service

import (
	"context"

	"user-session-api/internal/apperr"
	"user-session-api/internal/security"
	sessiondomain "user-session-api/internal/session/domain"
	userdomain "user-session-api/internal/user/domain"
)

// UserRepo is the minimal user repository needed by the session service.
type UserRepo interface {
	GetByUUID(ctx context.Context, uuid string) (*userdomain.User, error)
	GetByUsername(ctx context.Context, username string) (*userdomain.User, error)
}

// SessionRepo is the minimal session repository needed by the session service.
type SessionRepo interface {
	GetByUserUUID(ctx context.Context, userUUID string) (*sessiondomain.Session, error)
	GetByUserUUIDForUpdate(ctx context.Context, userUUID string) (*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	UpdateToken(ctx context.Context, sessionUUID, token string, refreshes int) error
	DeleteByUserUUID(ctx context.Context, userUUID string) error
}

// TxRunner runs fn against transaction-bound repositories. Every
// state-mutating operation goes through it so the read-then-write on the
// session row is atomic; under a create race the unique constraint on
// user_uuid decides the winner and the loser sees Conflict.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(users UserRepo, sessions SessionRepo) error) error
}

// CreateInput is the login request: a username and the plaintext
// password to check against the stored hash.
type CreateInput struct {
	Username string
	Password string
}

// Result is what a successful login or refresh yields: the user
// projection for the response body and the signed credential the
// boundary layer attaches as a cookie.
type Result struct {
	User  userdomain.Response
	Token string
}

// Service ties the session domain, token issuance, and persistence
// together. It never retries; every failure is a typed business rule or
// an infrastructure fault passed through for the boundary to classify.
type Service struct {
	users    UserRepo
	sessions SessionRepo
	tx       TxRunner
	tokens   *security.TokenProvider
	hasher   *security.Hasher
}

// New returns a Service with the given dependencies.
func New(users UserRepo, sessions SessionRepo, tx TxRunner, tokens *security.TokenProvider, hasher *security.Hasher) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		tx:       tx,
		tokens:   tokens,
		hasher:   hasher,
	}
}

// Create logs a user in. Unknown username fails NotFound; a wrong
// password fails Unauthorized. When a session already exists the call
// delegates to Update — repeated logins rotate instead of conflicting.
// Otherwise a fresh credential is issued and the session row inserted in
// one transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Result, error) {
	user, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("User %s not found", in.Username)
	}
	if err := s.hasher.Compare(user.Password, []byte(in.Password)); err != nil {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	existing, err := s.sessions.GetByUserUUID(ctx, user.UUID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.Update(ctx, user.UUID)
	}

	token, err := s.tokens.Issue(user.UUID, user.Username)
	if err != nil {
		return nil, err
	}
	sess, err := sessiondomain.New(map[string]any{
		"userUuid": user.UUID,
		"token":    token,
	})
	if err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(_ UserRepo, sessions SessionRepo) error {
		return sessions.Create(ctx, sess)
	})
	if err != nil {
		return nil, err
	}
	return &Result{User: user.Response(), Token: token}, nil
}

// Update rotates the session token for userUUID. The session row is
// read under lock, rotated through the domain rule, and written back in
// the same transaction. An Unauthorized error from the rotation ceiling
// propagates untouched; the caller owns the compensating delete and
// cookie clear.
func (s *Service) Update(ctx context.Context, userUUID string) (*Result, error) {
	user, err := s.users.GetByUUID(ctx, userUUID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("User by uuid %s not found", userUUID)
	}

	token, err := s.tokens.Issue(user.UUID, user.Username)
	if err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(_ UserRepo, sessions SessionRepo) error {
		sess, err := sessions.GetByUserUUIDForUpdate(ctx, userUUID)
		if err != nil {
			return err
		}
		if sess == nil {
			return apperr.NotFound("Session for user uuid %s not found", userUUID)
		}
		if err := sess.RefreshToken(token); err != nil {
			return err
		}
		return sessions.UpdateToken(ctx, sess.UUID, sess.Token, sess.Refreshes)
	})
	if err != nil {
		return nil, err
	}
	return &Result{User: user.Response(), Token: token}, nil
}

// Remove deletes the session for userUUID. Both lookups must succeed;
// the two miss cases carry distinct messages.
func (s *Service) Remove(ctx context.Context, userUUID string) error {
	if err := s.Exists(ctx, userUUID); err != nil {
		return err
	}
	return s.sessions.DeleteByUserUUID(ctx, userUUID)
}

// Exists reports whether userUUID has an active session. A missing user
// and a missing session for an existing user are distinguishable by
// message; callers and tests rely on that.
func (s *Service) Exists(ctx context.Context, userUUID string) error {
	user, err := s.users.GetByUUID(ctx, userUUID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.NotFound("User by uuid %s not found", userUUID)
	}
	sess, err := s.sessions.GetByUserUUID(ctx, userUUID)
	if err != nil {
		return err
	}
	if sess == nil {
		return apperr.NotFound("Session for user uuid %s not found", userUUID)
	}
	return nil
}
