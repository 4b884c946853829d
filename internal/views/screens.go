package views

import (
	"fmt"
	"strings"
)

type SidebarItem struct {
	Key     string
	Title   string
	Section string
	Active  bool
}

type SidebarData struct {
	Items     []SidebarItem
	Collapsed bool
}

type NotificationItem struct {
	ShortID string
	Title   string
	Message string
	Type    string
	Read    bool
	When    string
}

type NotificationsData struct {
	Unread int
	Items  []NotificationItem
	Limit  int
}

type LoginPanelData struct {
	EmailView    string
	PasswordView string
	FocusIndex   int
	Submitting   bool
	SpinnerView  string
	Notice       string
}

type MFAPanelData struct {
	CodeView    string
	Phase       string
	Submitting  bool
	SpinnerView string
	Notice      string
}

type DashboardData struct {
	UserName  string
	Initials  string
	Role      string
	Unread    int
	LastLogin string
	Badges    []string
	Filters   []string
}

type AuditRow struct {
	When   string
	Kind   string
	Actor  string
	Detail string
}

type AuditPanelData struct {
	Rows  []AuditRow
	Total string
	Err   string
}

type HelpPanelData struct {
	CurrentPage string
	Bindings    []string
	HelpView    string
}

func RenderSidebar(data SidebarData) string {
	var b strings.Builder
	section := ""
	for _, item := range data.Items {
		if data.Collapsed {
			line := item.Key
			if item.Active {
				line = activeStyle.Render(line)
			}
			b.WriteString(line + "\n")
			continue
		}
		if item.Section != section {
			section = item.Section
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(sectionStyle.Render(strings.ToUpper(section)) + "\n")
		}
		line := fmt.Sprintf("[%s] %s", item.Key, item.Title)
		if item.Active {
			line = activeStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func RenderLoginPanel(data LoginPanelData) string {
	var b strings.Builder
	b.WriteString(Input("Email", data.EmailView, "") + "\n\n")
	b.WriteString(Input("Password", data.PasswordView, "") + "\n\n")
	b.WriteString(submitLine(data.Submitting, data.SpinnerView, "Sign in"))
	if data.Notice != "" {
		b.WriteString("\n" + errorStyle.Render(data.Notice))
	}
	b.WriteString("\n" + mutedStyle.Render("[tab] next field  [enter] sign in"))
	return Card("Sign In", b.String())
}

func RenderMFAPanel(data MFAPanelData) string {
	var b strings.Builder
	b.WriteString("Enter the 6-digit code from your authenticator app.\n\n")
	b.WriteString(Input("Code", data.CodeView, "") + "\n\n")
	b.WriteString(submitLine(data.Submitting, data.SpinnerView, "Verify"))
	if data.Notice != "" {
		b.WriteString("\n" + errorStyle.Render(data.Notice))
	}
	b.WriteString("\n" + mutedStyle.Render("[enter] verify  [esc] back to sign in"))
	return Card("Verify Code", b.String())
}

func submitLine(submitting bool, spinner, label string) string {
	if submitting {
		return mutedStyle.Render(fmt.Sprintf("%s %s...", spinner, label))
	}
	return activeStyle.Render("[ " + label + " ]")
}

func RenderDashboardPanel(data DashboardData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("(%s) %s", data.Initials, data.UserName))
	if data.Role != "" {
		b.WriteString(" - " + data.Role)
	}
	b.WriteString("\n")
	if data.LastLogin != "" {
		b.WriteString(mutedStyle.Render("signed in "+data.LastLogin) + "\n")
	}
	b.WriteString(fmt.Sprintf("unread notifications: %d\n", data.Unread))
	if len(data.Filters) > 0 {
		b.WriteString("filters: " + strings.Join(data.Filters, " ") + "\n")
	}
	if len(data.Badges) > 0 {
		b.WriteString("\nmatch confidence legend:\n")
		for _, badge := range data.Badges {
			b.WriteString(badge + "\n")
		}
	}
	return Card("Dashboard", b.String())
}

func RenderAuditPanel(data AuditPanelData) string {
	if data.Err != "" {
		return Card("Audit Log", errorStyle.Render(data.Err))
	}
	if len(data.Rows) == 0 {
		return Card("Audit Log", mutedStyle.Render("(no audit events)"))
	}
	var b strings.Builder
	if data.Total != "" {
		b.WriteString(mutedStyle.Render("total events: "+data.Total) + "\n")
	}
	for _, row := range data.Rows {
		b.WriteString(fmt.Sprintf("%s  %-22s %s", row.When, row.Kind, row.Actor))
		if row.Detail != "" {
			b.WriteString("  " + mutedStyle.Render(row.Detail))
		}
		b.WriteString("\n")
	}
	return Card("Audit Log", b.String())
}

// RenderPlaceholder renders a page that has no data view yet.
func RenderPlaceholder(title, text string) string {
	return Card(title, RenderMarkdown(text))
}

func RenderNotifications(data NotificationsData) string {
	if len(data.Items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("notifications (%d unread):\n", data.Unread))
	items := data.Items
	if data.Limit > 0 && len(items) > data.Limit {
		items = items[:data.Limit]
	}
	for _, n := range items {
		marker := "*"
		if n.Read {
			marker = " "
		}
		line := fmt.Sprintf("%s %s [%s] %s: %s", marker, n.ShortID, strings.ToUpper(n.Type), n.Title, n.Message)
		if n.When != "" {
			line += " " + mutedStyle.Render(n.When)
		}
		if n.Read {
			line = mutedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	if hidden := len(data.Items) - len(items); hidden > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("... %d more", hidden)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: %s", input)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help (%s):\n%s\n%s",
		strings.ToLower(data.CurrentPage),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}
