package security

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"user-session-api/internal/apperr"
)

// CurrentTokenVersion is the minimum accepted version claim. Bumping it
// invalidates every credential signed under an older scheme without
// touching the session table.
const CurrentTokenVersion = 2

// SessionClaims is the credential payload: subject identity, display
// name, a per-issuance uniquefier so two tokens for the same user are
// never byte-equal, and the version marker gating old signing schemes.
type SessionClaims struct {
	jwt.RegisteredClaims
	Username   string `json:"username"`
	Uniquefier string `json:"uniquefier"`
	Version    int    `json:"version"`
}

// Identity is the normalized result of a verified credential.
type Identity struct {
	UserID   string
	Username string
	Version  int
}

// TokenProvider issues and verifies HS256 session credentials. Secret,
// issuer, and lifetime come from config; the provider never logs the
// secret or a signed token.
type TokenProvider struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenProvider returns a TokenProvider signing with the given secret.
func NewTokenProvider(secret []byte, issuer string, ttl time.Duration) *TokenProvider {
	return &TokenProvider{secret: secret, issuer: issuer, ttl: ttl}
}

// Issue signs a credential for the given user projection. Each call
// embeds a fresh uniquefier, so repeated issuance for one user yields
// distinct tokens.
func (p *TokenProvider) Issue(userUUID, username string) (string, error) {
	uniq, err := generateUniquefier()
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userUUID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
		Username:   username,
		Uniquefier: uniq,
		Version:    CurrentTokenVersion,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(p.secret)
}

// Verify parses and validates the credential (signature, exp, iss) and
// applies the version gate: tokens with version below CurrentTokenVersion
// are rejected even when their signature still checks out.
func (p *TokenProvider) Verify(tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, apperr.Unauthorized("missing credential")
	}
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Unauthorized("unexpected signing method")
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, apperr.Unauthorized("invalid or expired credential")
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, apperr.Unauthorized("invalid or expired credential")
	}
	if claims.Issuer != p.issuer {
		return nil, apperr.Unauthorized("invalid or expired credential")
	}
	if claims.Subject == "" {
		return nil, apperr.Unauthorized("empty credential payload")
	}
	if claims.Version < CurrentTokenVersion {
		return nil, apperr.Unauthorized("credential version no longer accepted")
	}
	return &Identity{
		UserID:   claims.Subject,
		Username: claims.Username,
		Version:  claims.Version,
	}, nil
}

func generateUniquefier() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
