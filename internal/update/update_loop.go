package update

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/recondash/recondash/internal/model"
	"github.com/recondash/recondash/internal/routes"
	"github.com/recondash/recondash/internal/scheduler"
	"github.com/recondash/recondash/internal/views"
	"go.uber.org/zap"
)

func (m Model) Init() tea.Cmd {
	if m.scheduler != nil {
		return waitForSchedulerCmd(m.scheduler.C())
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.syncBubbleData()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(typed)
	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.busySpinner, cmd = m.busySpinner.Update(typed)
			return m, cmd
		}
		return m, nil
	case NavigateMsg:
		m.Nav = typed.State
		return m.navigate(typed.Path)
	case SetStatusMsg:
		cmd := m.setNotice(typed.Text, typed.IsError)
		return m, cmd
	case ClearStatusMsg:
		m.Status = StatusBar{}
		m.noticeID = ""
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.logger.Error("app error", zap.Error(typed.Err))
			m.notify("Error", typed.Err.Error(), model.NotificationError)
			cmd := m.setNotice(typed.Err.Error(), true)
			return m, cmd
		}
		return m, nil
	case AddNotificationMsg:
		m.Notifications.Add(typed.Input)
		return m, nil
	case LoginResultMsg:
		return m.onLoginResult(typed)
	case MFAResultMsg:
		return m.onMFAResult(typed)
	case AuditLoadedMsg:
		m.Audit.Loading = false
		m.Audit.Rows = typed.Rows
		m.Audit.Total = typed.Total
		m.Audit.Err = ""
		switch {
		case errors.Is(typed.Err, errAuditDisabled):
			m.Audit.Err = "Audit log is disabled."
		case typed.Err != nil:
			m.logger.Warn("audit load failed", zap.Error(typed.Err))
			m.Audit.Err = "Audit log unavailable."
		}
		return m, nil
	case SchedulerEventMsg:
		m = m.onSchedulerEvent(typed.Event)
		if m.scheduler != nil {
			return m, waitForSchedulerCmd(m.scheduler.C())
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		m.Quitting = true
		return m, tea.Quit
	}
	if m.Palette.Active {
		return m.handlePaletteKey(msg)
	}
	switch m.Route {
	case routes.Login:
		return m.handleLoginKey(msg)
	case routes.MFA:
		return m.handleMFAKey(msg)
	}

	switch key {
	case m.Keys.Palette:
		m.Palette.Active = true
		m.Palette.Input = ""
		m.Status = StatusBar{Text: "command palette active"}
		return m, nil
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		return m, nil
	case m.Keys.Sidebar:
		if m.Prefs.ToggleSidebar() {
			m.Status = StatusBar{Text: "sidebar collapsed"}
		} else {
			m.Status = StatusBar{Text: "sidebar expanded"}
		}
		return m, nil
	case m.Keys.Notifications:
		m.NotificationsVisible = !m.NotificationsVisible
		return m, nil
	case m.Keys.ReadAll:
		m.markAllRead()
		cmd := m.setNotice("all notifications marked read", false)
		return m, cmd
	case m.Keys.Dismiss:
		items := m.Notifications.List()
		if len(items) == 0 {
			return m, nil
		}
		m.Notifications.Remove(items[0].ID)
		cmd := m.setNotice(fmt.Sprintf("dismissed %q", items[0].Title), false)
		return m, cmd
	case m.Keys.Logout:
		return m.logout("signed out")
	case m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	}
	if page, ok := routes.ByKey(key); ok {
		return m.navigate(page.Path)
	}
	return m, nil
}

// navigate moves to target after applying the route guard.
func (m Model) navigate(target routes.Path) (Model, tea.Cmd) {
	resolved := routes.Resolve(target, m.authenticated(), m.Nav)
	if resolved != target {
		m.logger.Debug("navigation redirected",
			zap.String("target", string(target)),
			zap.String("resolved", string(resolved)))
	}
	m.Route = resolved
	m.Palette.Active = false
	switch resolved {
	case routes.Login:
		m.Nav = routes.NavState{}
		m.Login = LoginState{Phase: LoginEditing, Email: m.Login.Email, Notice: m.Login.Notice}
	case routes.MFA:
		m.MFA = MFAState{Phase: MFAEnteringCode}
	case routes.Audit:
		m.Audit.Loading = true
		return m, m.loadAuditCmd()
	}
	return m, nil
}

func (m Model) authenticated() bool {
	return m.Session.Authenticated(m.now())
}

func (m Model) busy() bool {
	return m.Login.Phase == LoginSubmitting || m.MFA.Phase == MFASubmitting
}

func (m Model) onSchedulerEvent(ev scheduler.Event) Model {
	switch ev.Kind {
	case scheduler.KindNoticeExpired:
		if ev.ID == m.noticeID {
			m.Status = StatusBar{}
			m.noticeID = ""
		}
	case scheduler.KindSessionExpired:
		sess, ok := m.Session.Current()
		if !ok || sessionEventID(sess) != ev.ID {
			return m
		}
		m.logger.Info("session expired", zap.String("user", sess.User.Email))
		m.recordAudit(model.AuditSessionExpired, sess.User.Email, "")
		m.notify("Session expired", "Sign in again to continue.", model.NotificationWarning)
		m.Session.Reset()
		m.Prefs.Reset()
		m.signedInAt = time.Time{}
		m.Login = LoginState{Phase: LoginEditing, Notice: noticeSessionExpired}
		m.Nav = routes.NavState{}
		m, _ = m.navigate(routes.Login)
	}
	return m
}

func waitForSchedulerCmd(ch <-chan scheduler.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return SchedulerEventMsg{Event: ev}
	}
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	page, err := routes.Lookup(string(m.Route))
	if err != nil {
		page = routes.MustLookup(routes.Login)
	}

	header := "recondash | " + page.Title
	if sess, ok := m.Session.Current(); ok && m.authenticated() {
		header += " | " + sess.User.DisplayName()
		if unread := m.Notifications.UnreadCount(); unread > 0 {
			header += fmt.Sprintf(" | %d unread", unread)
		}
	}

	body := m.renderPage(page)
	if extra := strings.TrimSpace(m.renderCommandPalette() + m.renderHelpIfVisible()); extra != "" {
		body += "\n\n" + extra
	}

	sidebar := ""
	footer := "keys: ctrl+c quit"
	notifications := ""
	if !page.Public {
		sidebar = m.renderSidebar()
		notifications = m.renderNotificationsView()
		footer = fmt.Sprintf("keys: %s cmd | %s sidebar | %s notifications | %s read all | %s dismiss | %s sign out | %s help | %s quit",
			m.Keys.Palette, m.Keys.Sidebar, m.Keys.Notifications, m.Keys.ReadAll, m.Keys.Dismiss, m.Keys.Logout, m.Keys.Help, m.Keys.Quit)
	}

	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = "status: error: " + m.Status.Text
		} else {
			status = "status: " + m.Status.Text
		}
	}

	return views.RenderApp(views.AppData{
		Header:        header,
		Sidebar:       sidebar,
		Body:          body,
		StatusLine:    status,
		StatusIsError: m.Status.IsError,
		Notification:  notifications,
		Footer:        footer,
	})
}
