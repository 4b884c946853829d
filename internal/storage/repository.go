package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("storage: not found")

type Repository interface {
	AppendEvent(ctx context.Context, in AuditEvent) error
	GetEvent(ctx context.Context, id string) (AuditEvent, error)
	ListEvents(ctx context.Context, filter AuditListFilter) ([]AuditEvent, error)
	CountEvents(ctx context.Context, kind string) (int, error)
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
