package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidAuditKind = errors.New("model: invalid audit event kind")

type AuditKind string

const (
	AuditLoginSucceeded       AuditKind = "login_succeeded"
	AuditLoginFailed          AuditKind = "login_failed"
	AuditMFAChallenged        AuditKind = "mfa_challenged"
	AuditMFASucceeded         AuditKind = "mfa_succeeded"
	AuditMFAFailed            AuditKind = "mfa_failed"
	AuditLogout               AuditKind = "logout"
	AuditSessionExpired       AuditKind = "session_expired"
	AuditNotificationsCleared AuditKind = "notifications_cleared"
)

func (k AuditKind) IsValid() bool {
	switch k {
	case AuditLoginSucceeded, AuditLoginFailed, AuditMFAChallenged, AuditMFASucceeded,
		AuditMFAFailed, AuditLogout, AuditSessionExpired, AuditNotificationsCleared:
		return true
	default:
		return false
	}
}

type AuditEvent struct {
	ID        string
	Kind      AuditKind
	Actor     string
	Detail    string
	CreatedAt time.Time
}

func (e AuditEvent) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("model: audit event id is required")
	}
	if !e.Kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidAuditKind, e.Kind)
	}
	if e.CreatedAt.IsZero() {
		return errors.New("model: audit event created_at is required")
	}
	return nil
}
