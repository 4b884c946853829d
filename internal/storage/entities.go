package storage

import "time"

type AuditEvent struct {
	ID        string
	Kind      string
	Actor     string
	Detail    string
	CreatedAt time.Time
}

type AuditListFilter struct {
	Kind   string
	Since  *time.Time
	Limit  int
	Offset int
}
