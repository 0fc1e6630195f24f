// Package audit records security-relevant events (logins, refreshes,
// logouts, account changes) to a durable trail. Writes are best-effort:
// an unreachable trail never fails the request that triggered it.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"user-session-api/internal/audit/domain"
	auditrepo "user-session-api/internal/audit/repository"
)

// SentinelUserUUID marks events with no attributable user, such as a
// failed login or a logout with no usable credential.
const SentinelUserUUID = "_anonymous"

// IPExtractor returns the client IP recorded on the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event with explicit action/resource.
type AuditLogger interface {
	LogEvent(ctx context.Context, userUUID, action, resource, metadata string)
}

// Logger implements AuditLogger over the audit repository.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
}

// NewLogger returns an AuditLogger that persists to repo. ipExtractor
// may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor}
}

// LogEvent writes one audit entry. Failures are logged, never returned.
func (l *Logger) LogEvent(ctx context.Context, userUUID, action, resource, metadata string) {
	if l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	if userUUID == "" {
		userUUID = SentinelUserUUID
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		UserUUID:  userUUID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s/%s: %v", action, resource, err)
	}
}
