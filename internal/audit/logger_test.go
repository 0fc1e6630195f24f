package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"user-session-api/internal/audit/domain"
)

type memAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
	err     error
}

func (r *memAuditRepo) Create(ctx context.Context, a *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, a)
	return nil
}

func (r *memAuditRepo) ListByUser(ctx context.Context, userUUID string, limit, offset int32) ([]*domain.AuditLog, error) {
	return nil, nil
}

func TestLogEvent(t *testing.T) {
	repo := &memAuditRepo{}
	l := NewLogger(repo, func(context.Context) string { return "10.0.0.1" })

	l.LogEvent(context.Background(), "user-1", "login", "session", "")

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	e := repo.entries[0]
	if e.ID == "" {
		t.Error("entry must get an id")
	}
	if e.UserUUID != "user-1" || e.Action != "login" || e.Resource != "session" {
		t.Errorf("entry = %+v", e)
	}
	if e.IP != "10.0.0.1" {
		t.Errorf("IP = %q", e.IP)
	}
	if e.CreatedAt.IsZero() {
		t.Error("CreatedAt must be set")
	}
}

func TestLogEvent_AnonymousSentinel(t *testing.T) {
	repo := &memAuditRepo{}
	l := NewLogger(repo, nil)

	l.LogEvent(context.Background(), "", "login_failure", "session", "")

	if repo.entries[0].UserUUID != SentinelUserUUID {
		t.Errorf("UserUUID = %q, want sentinel", repo.entries[0].UserUUID)
	}
	if repo.entries[0].IP != "unknown" {
		t.Errorf("IP = %q, want unknown", repo.entries[0].IP)
	}
}

func TestLogEvent_BestEffort(t *testing.T) {
	repo := &memAuditRepo{err: errors.New("db down")}
	l := NewLogger(repo, nil)
	// Must not panic or propagate.
	l.LogEvent(context.Background(), "user-1", "login", "session", "")
}

func TestLogEvent_NilRepo(t *testing.T) {
	l := NewLogger(nil, nil)
	l.LogEvent(context.Background(), "user-1", "login", "session", "")
}
