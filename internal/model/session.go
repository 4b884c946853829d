package model

import (
	"errors"
	"strings"
	"time"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// DisplayName prefers the user's name and falls back to the email.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	return u.Email
}

type Session struct {
	AccessToken string
	User        User
	ExpiresAt   time.Time
}

func (s Session) Validate() error {
	if strings.TrimSpace(s.AccessToken) == "" {
		return errors.New("model: session access token is required")
	}
	return nil
}

// Expired reports whether the session has a deadline at or before now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
