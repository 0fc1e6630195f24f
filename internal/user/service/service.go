// Package service implements user account management: registration,
// lookup, listing, profile updates, and removal. Passwords are hashed
// here, before the payload ever reaches the domain layer.
package service

import (
	"context"
	"fmt"

	"user-session-api/internal/apperr"
	"user-session-api/internal/security"
	"user-session-api/internal/user/domain"
)

// Repo is the persistence surface the user service needs.
type Repo interface {
	GetByUUID(ctx context.Context, uuid string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, uuid string) error
}

// Service manages user accounts.
type Service struct {
	repo   Repo
	hasher *security.Hasher
}

// New returns a Service backed by repo.
func New(repo Repo, hasher *security.Hasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

// hashPassword returns a copy of payload with any plaintext password
// replaced by its hash. Absent or malformed passwords pass through for
// the domain schema to reject with the key named.
func (s *Service) hashPassword(payload map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	if pw, ok := out["password"].(string); ok && pw != "" {
		hash, err := s.hasher.Hash([]byte(pw))
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("hash password: %w", err))
		}
		out["password"] = hash
	}
	return out, nil
}

// Create registers a user from a raw request payload. Validation runs in
// the domain; a duplicate username surfaces as Conflict from the store.
func (s *Service) Create(ctx context.Context, payload map[string]any) (*domain.User, error) {
	prepared, err := s.hashPassword(payload)
	if err != nil {
		return nil, err
	}
	user, err := domain.New(prepared)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Get returns the user for uuid or NotFound.
func (s *Service) Get(ctx context.Context, uuid string) (*domain.User, error) {
	user, err := s.repo.GetByUUID(ctx, uuid)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("User by uuid %s not found", uuid)
	}
	return user, nil
}

// List returns every user.
func (s *Service) List(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

// Update applies a partial payload to the user for uuid. The domain
// merges and re-validates the whole entity, so a rejected payload leaves
// both the in-memory value and the row untouched.
func (s *Service) Update(ctx context.Context, uuid string, payload map[string]any) (*domain.User, error) {
	user, err := s.Get(ctx, uuid)
	if err != nil {
		return nil, err
	}
	prepared, err := s.hashPassword(payload)
	if err != nil {
		return nil, err
	}
	if err := user.Update(prepared); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes the user for uuid. The session row, if any, goes with
// it via the foreign key cascade.
func (s *Service) Delete(ctx context.Context, uuid string) error {
	if _, err := s.Get(ctx, uuid); err != nil {
		return err
	}
	return s.repo.Delete(ctx, uuid)
}
