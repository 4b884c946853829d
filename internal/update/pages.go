package update

import (
	"fmt"
	"sort"
	"strings"

	"github.com/recondash/recondash/internal/badge"
	"github.com/recondash/recondash/internal/format"
	"github.com/recondash/recondash/internal/routes"
	"github.com/recondash/recondash/internal/store"
	"github.com/recondash/recondash/internal/views"
)

const notificationListLimit = 5

// legendConfidence is the sample score shown next to each match type on the
// dashboard legend; manual matches carry no score.
var legendConfidence = map[badge.MatchType]float64{
	badge.MatchExact:   100,
	badge.MatchFuzzy:   82,
	badge.MatchPartial: 64,
	badge.MatchNWay:    91,
}

func (m Model) renderPage(page routes.Page) string {
	switch page.Path {
	case routes.Login:
		return views.RenderLoginPanel(views.LoginPanelData{
			EmailView:    m.emailInput.View(),
			PasswordView: m.passwordInput.View(),
			FocusIndex:   m.Login.Focus,
			Submitting:   m.Login.Phase == LoginSubmitting,
			SpinnerView:  m.busySpinner.View(),
			Notice:       m.Login.Notice,
		})
	case routes.MFA:
		return views.RenderMFAPanel(views.MFAPanelData{
			CodeView:    m.codeInput.View(),
			Phase:       string(m.MFA.Phase),
			Submitting:  !m.MFA.CanSubmit(),
			SpinnerView: m.busySpinner.View(),
			Notice:      m.MFA.Notice,
		})
	case routes.Dashboard:
		return m.renderDashboard()
	case routes.Audit:
		return m.renderAudit()
	}
	return views.RenderPlaceholder(page.Title, page.PlaceholderText())
}

func (m Model) renderDashboard() string {
	data := views.DashboardData{Unread: m.Notifications.UnreadCount()}
	if sess, ok := m.Session.Current(); ok {
		data.UserName = sess.User.DisplayName()
		data.Initials = format.Initials(data.UserName)
		data.Role = sess.User.Role
	}
	if !m.signedInAt.IsZero() {
		data.LastLogin = format.Date(m.signedInAt, format.DateLong)
	}
	data.Filters = m.filterLabels()
	for _, mt := range badge.MatchTypes() {
		opts := []badge.Option{badge.WithSize(badge.SizeSmall)}
		if c, ok := legendConfidence[mt]; ok {
			opts = append(opts, badge.WithConfidence(c), badge.ShowConfidence(true))
		}
		b, err := badge.New(mt, opts...)
		if err != nil {
			continue
		}
		data.Badges = append(data.Badges, b.Render())
	}
	return views.RenderDashboardPanel(data)
}

// filterLabels renders active filters as key=value, sorted by key. Numeric
// filters on amount keys are shown in the configured currency.
func (m Model) filterLabels() []string {
	filters := m.Prefs.Filters()
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		v := filters[k]
		text := v.String()
		if v.Kind == store.FilterNumber && strings.Contains(strings.ToLower(k), "amount") {
			text = format.Currency(v.Num, m.cfg.Currency)
		}
		out = append(out, k+"="+text)
	}
	return out
}

func (m Model) renderAudit() string {
	if m.Audit.Loading {
		return views.Card("Audit Log", m.busySpinner.View()+" loading...")
	}
	data := views.AuditPanelData{Err: m.Audit.Err}
	if m.Audit.Total > 0 {
		data.Total = format.Number(int64(m.Audit.Total))
	}
	for _, ev := range m.Audit.Rows {
		data.Rows = append(data.Rows, views.AuditRow{
			When:   format.Date(ev.CreatedAt.In(m.now().Location()), format.DateLong),
			Kind:   ev.Kind,
			Actor:  ev.Actor,
			Detail: ev.Detail,
		})
	}
	return views.RenderAuditPanel(data)
}

func (m Model) renderSidebar() string {
	pages := routes.Navigable()
	items := make([]views.SidebarItem, 0, len(pages))
	for _, p := range pages {
		items = append(items, views.SidebarItem{
			Key:     p.Key,
			Title:   p.Title,
			Section: p.Section,
			Active:  p.Path == m.Route,
		})
	}
	return views.RenderSidebar(views.SidebarData{Items: items, Collapsed: m.Prefs.SidebarCollapsed()})
}

func (m Model) renderNotificationsView() string {
	if !m.NotificationsVisible {
		return ""
	}
	list := m.Notifications.List()
	if len(list) == 0 {
		return "notifications: none"
	}
	items := make([]views.NotificationItem, 0, len(list))
	for _, n := range list {
		items = append(items, views.NotificationItem{
			ShortID: shortID(n.ID),
			Title:   n.Title,
			Message: n.Message,
			Type:    string(n.Type),
			Read:    n.Read,
			When:    n.TimestampString(),
		})
	}
	return views.RenderNotifications(views.NotificationsData{
		Unread: m.Notifications.UnreadCount(),
		Items:  items,
		Limit:  notificationListLimit,
	})
}

func (m Model) renderCommandPalette() string {
	return views.RenderCommandPalette(m.Palette.Active, m.commandInput.View())
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return fmt.Sprintf("%.8s", id)
}
