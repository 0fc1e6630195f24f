// Package domain defines the Session entity: one user's currently active
// credential and its rotation counter.
package domain

import (
	"user-session-api/internal/apperr"
	"user-session-api/internal/entity"
)

// MaxRefreshes is the rotation ceiling. Once a session's counter passes
// it, the session is terminal: the caller must delete the row, not retry.
const MaxRefreshes = 10

// Session tracks a user's active token. At most one session exists per
// user (unique user_uuid); the token itself is unique across sessions.
type Session struct {
	entity.Base
	UserUUID  string
	Token     string
	Refreshes int
}

func childSchema() entity.Schema {
	return entity.Schema{
		"userUuid":  {Required: true, Check: entity.IsUUIDv4},
		"token":     {Required: true, Check: entity.IsNonEmptyString},
		"refreshes": {Check: entity.IsNonNegativeInt},
	}
}

// New builds a Session from a raw payload. refreshes defaults to 0 on a
// create payload; reconstruction payloads carry the stored counter.
func New(payload map[string]any) (*Session, error) {
	base, err := entity.Construct(payload, childSchema())
	if err != nil {
		return nil, err
	}
	s := &Session{Base: base}
	s.UserUUID, _ = payload["userUuid"].(string)
	s.Token, _ = payload["token"].(string)
	if n, ok := entity.AsInt64(payload["refreshes"]); ok {
		s.Refreshes = int(n)
	}
	return s, nil
}

// ChildSchema implements entity.Validatable.
func (s *Session) ChildSchema() entity.Schema { return childSchema() }

// RefreshToken replaces the token and increments the rotation counter.
// Past MaxRefreshes it fails Unauthorized before any persistence; the
// caller must treat that as terminal and delete the record. Otherwise the
// mutated candidate is re-validated before the method returns.
func (s *Session) RefreshToken(newToken string) error {
	s.Token = newToken
	s.Refreshes++
	if s.Refreshes > MaxRefreshes {
		return apperr.Unauthorized("Maximum refreshes exceeded")
	}
	candidate := s.Fields()
	candidate["userUuid"] = s.UserUUID
	candidate["token"] = s.Token
	candidate["refreshes"] = s.Refreshes
	if err := entity.ValidateParent(candidate); err != nil {
		return err
	}
	return entity.ValidateStrict(candidate, childSchema())
}

// Update always fails: sessions are rotated via RefreshToken or deleted,
// never edited.
func (s *Session) Update(_ map[string]any) error {
	return apperr.Validation("Session records cannot be updated; use token refresh")
}
