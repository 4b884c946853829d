package store

import (
	"time"

	"github.com/recondash/recondash/internal/model"
)

// SessionStore holds the authenticated session, if any.
type SessionStore struct {
	session model.Session
	active  bool
}

func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

func (s *SessionStore) Set(sess model.Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}
	s.session = sess
	s.active = true
	return nil
}

func (s *SessionStore) Current() (model.Session, bool) {
	return s.session, s.active
}

// Authenticated reports whether a session is held and not expired at now.
func (s *SessionStore) Authenticated(now time.Time) bool {
	return s.active && !s.session.Expired(now)
}

func (s *SessionStore) Token() string {
	if !s.active {
		return ""
	}
	return s.session.AccessToken
}

func (s *SessionStore) Reset() {
	s.session = model.Session{}
	s.active = false
}
