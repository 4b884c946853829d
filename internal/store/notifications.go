// Package store holds the dashboard's client-side state containers. Each
// store is owned by whoever constructs it and is mutated only through its
// methods; none of them lock, since the update loop is their only caller.
package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/recondash/recondash/internal/model"
)

// NotificationInput carries the caller-supplied fields of a notification.
type NotificationInput struct {
	Title   string
	Message string
	Type    model.NotificationType
}

type NotificationStore struct {
	items    []model.Notification
	unread   int
	capacity int
	now      func() time.Time
	newID    func() string
}

type NotificationOption func(*NotificationStore)

func WithClock(now func() time.Time) NotificationOption {
	return func(s *NotificationStore) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(next func() string) NotificationOption {
	return func(s *NotificationStore) {
		if next != nil {
			s.newID = next
		}
	}
}

// WithCapacity bounds the number of retained notifications; the oldest are
// evicted first. Zero or less means unbounded.
func WithCapacity(n int) NotificationOption {
	return func(s *NotificationStore) { s.capacity = n }
}

func NewNotificationStore(opts ...NotificationOption) *NotificationStore {
	s := &NotificationStore{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add stores a new unread notification at the front of the list. An empty
// or unknown type is recorded as info.
func (s *NotificationStore) Add(in NotificationInput) model.Notification {
	typ := in.Type
	if !typ.IsValid() {
		typ = model.NotificationInfo
	}
	n := model.Notification{
		ID:        s.newID(),
		Title:     in.Title,
		Message:   in.Message,
		Type:      typ,
		Timestamp: s.now(),
	}
	s.items = append([]model.Notification{n}, s.items...)
	s.unread++
	s.evict()
	return n
}

// MarkAsRead flags id as read. It reports whether id exists; the unread
// count only moves when the notification was previously unread.
func (s *NotificationStore) MarkAsRead(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	if !s.items[i].Read {
		s.items[i].Read = true
		s.decrementUnread()
	}
	return true
}

func (s *NotificationStore) MarkAllAsRead() {
	for i := range s.items {
		s.items[i].Read = true
	}
	s.unread = 0
}

// Remove deletes id and reports whether it existed.
func (s *NotificationStore) Remove(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	if !s.items[i].Read {
		s.decrementUnread()
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

// Get returns a copy of the notification with the given id.
func (s *NotificationStore) Get(id string) (model.Notification, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Notification{}, false
	}
	return s.items[i], true
}

// List returns the notifications, most recent first.
func (s *NotificationStore) List() []model.Notification {
	out := make([]model.Notification, len(s.items))
	copy(out, s.items)
	return out
}

func (s *NotificationStore) Len() int { return len(s.items) }

func (s *NotificationStore) UnreadCount() int { return s.unread }

func (s *NotificationStore) Reset() {
	s.items = nil
	s.unread = 0
}

func (s *NotificationStore) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *NotificationStore) decrementUnread() {
	if s.unread > 0 {
		s.unread--
	}
}

func (s *NotificationStore) evict() {
	if s.capacity <= 0 {
		return
	}
	for len(s.items) > s.capacity {
		last := s.items[len(s.items)-1]
		if !last.Read {
			s.decrementUnread()
		}
		s.items = s.items[:len(s.items)-1]
	}
}
