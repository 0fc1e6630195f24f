// Package domain defines the User entity.
package domain

import (
	"user-session-api/internal/apperr"
	"user-session-api/internal/entity"
)

// User is a registered account. Password holds the bcrypt hash at rest;
// plaintext never reaches this type.
type User struct {
	entity.Base
	Username string
	Password string
}

// Response is the client-visible projection of a user. The password hash
// never leaves the service layer.
type Response struct {
	UUID     string `json:"uuid"`
	Username string `json:"username"`
}

func childSchema() entity.Schema {
	return entity.Schema{
		"username": {Required: true, Check: entity.IsNonEmptyString},
		"password": {Required: true, Check: entity.IsNonEmptyString},
	}
}

// New builds a User from a raw payload — either a create request
// {username, password} or a reconstruction payload carrying identity
// fields too. Both validation phases run before the value escapes; any
// undeclared key fails construction.
func New(payload map[string]any) (*User, error) {
	base, err := entity.Construct(payload, childSchema())
	if err != nil {
		return nil, err
	}
	u := &User{Base: base}
	u.Username, _ = payload["username"].(string)
	u.Password, _ = payload["password"].(string)
	return u, nil
}

// ChildSchema implements entity.Validatable.
func (u *User) ChildSchema() entity.Schema { return childSchema() }

// Update merges payload into a fully-mutated candidate and re-validates
// it before any change is observable. Either the whole update passes
// validation and is applied, or the receiver is untouched.
func (u *User) Update(payload map[string]any) error {
	if payload == nil {
		return apperr.Validation("Payload must be an object, got nothing")
	}
	candidate := u.Fields()
	candidate["username"] = u.Username
	candidate["password"] = u.Password
	for key, v := range payload {
		candidate[key] = v
	}
	next, err := New(candidate)
	if err != nil {
		return err
	}
	*u = *next
	return nil
}

// Response returns the client-visible projection.
func (u *User) Response() Response {
	return Response{UUID: u.UUID, Username: u.Username}
}
