package domain

import "time"

// AuditLog represents one recorded security event: who did what to
// which resource, from where.
type AuditLog struct {
	ID        string
	UserUUID  string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
