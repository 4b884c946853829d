package update

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/recondash/recondash/internal/model"
	"github.com/recondash/recondash/internal/scheduler"
	"github.com/recondash/recondash/internal/storage"
	"go.uber.org/zap"
)

const auditPageSize = 50

var errAuditDisabled = errors.New("audit log disabled")

// setNotice shows text in the status line and schedules its expiry. Only
// the newest notice is cleared when its timer fires.
func (m *Model) setNotice(text string, isError bool) tea.Cmd {
	m.Status = StatusBar{Text: text, IsError: isError}
	m.noticeSeq++
	m.noticeID = fmt.Sprintf("notice-%d", m.noticeSeq)
	if m.scheduler == nil || m.cfg.NoticeTTL <= 0 {
		return nil
	}
	err := m.scheduler.Schedule(scheduler.Event{
		ID:    m.noticeID,
		Kind:  scheduler.KindNoticeExpired,
		DueAt: m.now().Add(m.cfg.NoticeTTL),
	})
	if err != nil {
		m.logger.Debug("schedule notice expiry", zap.Error(err))
	}
	return nil
}

// recordAudit appends an audit event. Storage failures are logged and
// otherwise ignored.
func (m Model) recordAudit(kind model.AuditKind, actor, detail string) {
	if m.auditLog == nil {
		return
	}
	ev := model.AuditEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		Actor:     actor,
		Detail:    detail,
		CreatedAt: m.now(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.RequestTimeout)
	defer cancel()
	if err := m.auditLog.Record(ctx, ev); err != nil {
		m.logger.Warn("record audit event", zap.String("kind", string(kind)), zap.Error(err))
	}
}

func (m Model) actor() string {
	if sess, ok := m.Session.Current(); ok {
		return sess.User.Email
	}
	return m.Login.Email
}

func (m Model) loadAuditCmd() tea.Cmd {
	log := m.auditLog
	timeout := m.cfg.RequestTimeout
	return func() tea.Msg {
		if log == nil {
			return AuditLoadedMsg{Err: errAuditDisabled}
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		rows, err := log.ListEvents(ctx, storage.AuditListFilter{Limit: auditPageSize})
		if err != nil {
			return AuditLoadedMsg{Err: err}
		}
		total, err := log.CountEvents(ctx, "")
		if err != nil {
			return AuditLoadedMsg{Err: err}
		}
		return AuditLoadedMsg{Rows: rows, Total: total}
	}
}

// markAllRead clears the unread count, auditing only when something was
// unread.
func (m Model) markAllRead() {
	unread := m.Notifications.UnreadCount()
	if unread == 0 {
		return
	}
	m.Notifications.MarkAllAsRead()
	m.recordAudit(model.AuditNotificationsCleared, m.actor(), fmt.Sprintf("%d unread", unread))
}
