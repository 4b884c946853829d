package update

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/recondash/recondash/internal/model"
	"github.com/recondash/recondash/internal/routes"
	"github.com/recondash/recondash/internal/scheduler"
	"github.com/recondash/recondash/internal/store"
	"go.uber.org/zap"
)

const (
	noticeAuthUnavailable = "Sign-in service is not configured."
	noticeSessionExpired  = "Your session expired. Sign in again."
)

func (m Model) handleLoginKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		m.Login.Focus = 1 - m.Login.Focus
		return m, nil
	case "enter":
		if m.Login.Focus == 0 {
			m.Login.Focus = 1
			return m, nil
		}
		return m.submitLogin()
	}
	if m.Login.Phase == LoginSubmitting {
		return m, nil
	}

	field := &m.Login.Email
	if m.Login.Focus == 1 {
		field = &m.Login.Password
	}
	switch msg.Type {
	case tea.KeyBackspace:
		*field = dropLastRune(*field)
	case tea.KeySpace:
		if m.Login.Focus == 1 {
			*field += " "
		}
	case tea.KeyRunes:
		*field += string(msg.Runes)
	}
	return m, nil
}

func (m Model) handleMFAKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.submitMFA()
	case "esc":
		if m.MFA.Phase == MFASubmitting {
			return m, nil
		}
		m.Nav = routes.NavState{}
		return m.navigate(routes.Login)
	}
	if m.MFA.Phase == MFASubmitting {
		return m, nil
	}
	switch msg.Type {
	case tea.KeyBackspace:
		m.MFA.Code = dropLastRune(m.MFA.Code)
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if unicode.IsDigit(r) && len(m.MFA.Code) < mfaCodeLength {
				m.MFA.Code += string(r)
			}
		}
	}
	return m, nil
}

func (m Model) submitLogin() (Model, tea.Cmd) {
	if m.Login.Phase == LoginSubmitting {
		return m, nil
	}
	email := strings.TrimSpace(m.Login.Email)
	if email == "" || m.Login.Password == "" {
		m.Login.Notice = noticeLoginMissing
		return m, nil
	}
	if m.auth == nil {
		m.Login.Notice = noticeAuthUnavailable
		return m, nil
	}
	m.Login.Email = email
	m.Login.Phase = LoginSubmitting
	m.Login.Notice = ""
	return m, tea.Batch(m.loginCmd(email, m.Login.Password), m.busySpinner.Tick)
}

func (m Model) loginCmd(email, password string) tea.Cmd {
	client := m.auth
	timeout := m.cfg.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := client.Login(ctx, email, password)
		return LoginResultMsg{Result: res, Err: err}
	}
}

func (m Model) onLoginResult(msg LoginResultMsg) (Model, tea.Cmd) {
	if m.Route != routes.Login || m.Login.Phase != LoginSubmitting {
		m.logger.Debug("ignoring stale login result")
		return m, nil
	}
	m.Login.Phase = LoginEditing
	m.Login.Password = ""

	if msg.Err != nil {
		m.logger.Warn("login failed", zap.String("email", m.Login.Email), zap.Error(msg.Err))
		m.recordAudit(model.AuditLoginFailed, m.Login.Email, msg.Err.Error())
		m.Login.Notice = noticeLoginFailed
		return m, nil
	}
	if msg.Result.MFARequired {
		m.logger.Info("mfa challenge issued", zap.String("email", m.Login.Email))
		m.recordAudit(model.AuditMFAChallenged, m.Login.Email, "")
		m.Nav = routes.NavState{SessionID: msg.Result.SessionID}
		return m.navigate(routes.MFA)
	}
	return m.establishSession(msg.Result.Session, model.AuditLoginSucceeded)
}

func (m Model) submitMFA() (Model, tea.Cmd) {
	if !m.MFA.CanSubmit() {
		return m, nil
	}
	sessionID := strings.TrimSpace(m.Nav.SessionID)
	if sessionID == "" {
		m.logger.Info("mfa submit without session id, redirecting to login")
		m.Login.Notice = noticeSessionExpired
		return m.navigate(routes.Login)
	}
	if !validMFACode(m.MFA.Code) {
		m.MFA.Notice = noticeMFAMalformed
		return m, nil
	}
	if m.auth == nil {
		m.MFA.Notice = noticeAuthUnavailable
		return m, nil
	}
	m.MFA.Phase = MFASubmitting
	m.MFA.Notice = ""
	return m, tea.Batch(m.verifyCmd(m.MFA.Code, sessionID), m.busySpinner.Tick)
}

func (m Model) verifyCmd(code, sessionID string) tea.Cmd {
	client := m.auth
	timeout := m.cfg.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		sess, err := client.VerifyMFA(ctx, code, sessionID)
		return MFAResultMsg{Session: sess, Err: err}
	}
}

func (m Model) onMFAResult(msg MFAResultMsg) (Model, tea.Cmd) {
	if m.Route != routes.MFA || m.MFA.Phase != MFASubmitting {
		m.logger.Debug("ignoring stale mfa result")
		return m, nil
	}
	if msg.Err != nil {
		m.MFA.Phase = MFAFailed
		m.MFA.Attempts++
		m.logger.Warn("mfa verification failed",
			zap.Int("attempts", m.MFA.Attempts),
			zap.Error(msg.Err))
		m.recordAudit(model.AuditMFAFailed, m.Login.Email, msg.Err.Error())
		m.notify("Verification failed", noticeMFAFailed, model.NotificationError)
		m.MFA.Notice = noticeMFAFailed
		m.MFA.Phase = MFAEnteringCode
		return m, nil
	}
	m.MFA.Phase = MFASuccess
	return m.establishSession(msg.Session, model.AuditMFASucceeded)
}

// establishSession stores sess, schedules its expiry and lands on the
// dashboard.
func (m Model) establishSession(sess model.Session, kind model.AuditKind) (Model, tea.Cmd) {
	if err := m.Session.Set(sess); err != nil {
		m.logger.Error("rejecting session", zap.Error(err))
		m.Login.Notice = noticeLoginFailed
		m.Nav = routes.NavState{}
		return m.navigate(routes.Login)
	}
	m.signedInAt = m.now()
	m.logger.Info("signed in", zap.String("user", sess.User.Email), zap.String("via", string(kind)))
	m.recordAudit(kind, sess.User.Email, "")
	m.notify("Signed in", "Welcome back, "+sess.User.DisplayName()+".", model.NotificationSuccess)
	m.scheduleSessionExpiry(sess)

	m.Login = LoginState{Phase: LoginEditing}
	m.Nav = routes.NavState{}
	return m.navigate(routes.Dashboard)
}

func (m Model) scheduleSessionExpiry(sess model.Session) {
	if m.scheduler == nil || sess.ExpiresAt.IsZero() {
		return
	}
	err := m.scheduler.Schedule(scheduler.Event{
		ID:    sessionEventID(sess),
		Kind:  scheduler.KindSessionExpired,
		DueAt: sess.ExpiresAt,
	})
	if err != nil {
		m.logger.Warn("schedule session expiry", zap.Error(err))
	}
}

// logout clears every per-user store and returns to the sign-in page.
func (m Model) logout(reason string) (Model, tea.Cmd) {
	if sess, ok := m.Session.Current(); ok {
		m.recordAudit(model.AuditLogout, sess.User.Email, reason)
		if m.scheduler != nil {
			m.scheduler.Cancel(sessionEventID(sess))
		}
		m.logger.Info("signed out", zap.String("user", sess.User.Email))
	}
	m.Session.Reset()
	m.Prefs.Reset()
	m.Notifications.Reset()
	m.signedInAt = time.Time{}
	m.HelpVisible = false
	m.NotificationsVisible = false
	m.Login = LoginState{Phase: LoginEditing}
	m.MFA = MFAState{Phase: MFAEnteringCode}
	m.Nav = routes.NavState{}
	next, cmd := m.navigate(routes.Login)
	noticeCmd := next.setNotice(reason, false)
	return next, tea.Batch(cmd, noticeCmd)
}

func sessionEventID(sess model.Session) string {
	return fmt.Sprintf("session:%s:%d", sess.User.ID, sess.ExpiresAt.UnixNano())
}

func validMFACode(code string) bool {
	if len(code) != mfaCodeLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func dropLastRune(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return string(r[:len(r)-1])
}

// notify adds a notification to the store.
func (m Model) notify(title, message string, typ model.NotificationType) {
	m.Notifications.Add(store.NotificationInput{Title: title, Message: message, Type: typ})
}
