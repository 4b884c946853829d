package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidNotificationType = errors.New("model: invalid notification type")

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationInfo, NotificationSuccess, NotificationWarning, NotificationError:
		return true
	default:
		return false
	}
}

func ParseNotificationType(raw string) (NotificationType, error) {
	t := NotificationType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidNotificationType, raw)
	}
	return t, nil
}

// Notification is one entry in the dashboard notification list.
type Notification struct {
	ID        string
	Title     string
	Message   string
	Type      NotificationType
	Read      bool
	Timestamp time.Time
}

// TimestampString is the RFC 3339 form shown in the notification list.
func (n Notification) TimestampString() string {
	return n.Timestamp.UTC().Format(time.RFC3339)
}
