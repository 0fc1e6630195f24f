package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"user-session-api/internal/apperr"
)

func testProvider(ttl time.Duration) *TokenProvider {
	return NewTokenProvider([]byte("test-secret"), "user-session-api", ttl)
}

func TestIssueAndVerify(t *testing.T) {
	p := testProvider(time.Hour)
	token, err := p.Issue("0e3a59c4-1111-4a2b-8c3d-9e8f7a6b5c4d", "Eve")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	id, err := p.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.UserID != "0e3a59c4-1111-4a2b-8c3d-9e8f7a6b5c4d" {
		t.Errorf("UserID = %q", id.UserID)
	}
	if id.Username != "Eve" {
		t.Errorf("Username = %q", id.Username)
	}
	if id.Version != CurrentTokenVersion {
		t.Errorf("Version = %d, want %d", id.Version, CurrentTokenVersion)
	}
}

func TestIssue_TokensAreUnique(t *testing.T) {
	p := testProvider(time.Hour)
	a, err := p.Issue("u", "Eve")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	b, err := p.Issue("u", "Eve")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if a == b {
		t.Error("two issuances for the same user must differ (uniquefier)")
	}
}

func TestVerify_RejectsExpired(t *testing.T) {
	p := testProvider(-time.Minute)
	token, err := p.Issue("u", "Eve")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := p.Verify(token); err == nil {
		t.Fatal("expired token must be rejected")
	}
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	token, err := testProvider(time.Hour).Issue("u", "Eve")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	other := NewTokenProvider([]byte("other-secret"), "user-session-api", time.Hour)
	if _, err := other.Verify(token); err == nil {
		t.Fatal("token signed under a different secret must be rejected")
	}
}

func TestVerify_RejectsWrongIssuer(t *testing.T) {
	foreign := NewTokenProvider([]byte("test-secret"), "someone-else", time.Hour)
	token, err := foreign.Issue("u", "Eve")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := testProvider(time.Hour).Verify(token); err == nil {
		t.Fatal("token from a different issuer must be rejected")
	}
}

func TestVerify_VersionGate(t *testing.T) {
	p := testProvider(time.Hour)
	now := time.Now().UTC()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u",
			Issuer:    "user-session-api",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Username:   "Eve",
		Uniquefier: "abc",
		Version:    CurrentTokenVersion - 1,
	}
	old, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	_, err = p.Verify(old)
	if err == nil {
		t.Fatal("under-version token must be rejected")
	}
	if apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Errorf("kind = %v, want unauthorized", apperr.KindOf(err))
	}
}

func TestVerify_EmptyAndGarbage(t *testing.T) {
	p := testProvider(time.Hour)
	if _, err := p.Verify(""); err == nil {
		t.Fatal("empty credential must be rejected")
	}
	if _, err := p.Verify("not.a.jwt"); err == nil {
		t.Fatal("garbage credential must be rejected")
	}
}
