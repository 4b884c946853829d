package update

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/recondash/recondash/internal/commands"
	"github.com/recondash/recondash/internal/model"
	"github.com/recondash/recondash/internal/routes"
	"github.com/recondash/recondash/internal/store"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Palette.Active = false
		m.Palette.Input = ""
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		return m.executePaletteCommand()
	}
	switch msg.Type {
	case tea.KeyBackspace:
		m.Palette.Input = dropLastRune(m.Palette.Input)
	case tea.KeySpace:
		m.Palette.Input += " "
	case tea.KeyRunes:
		m.Palette.Input += string(msg.Runes)
	}
	return m, nil
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.Palette.Active = false
	m.Palette.Input = ""

	cmd, err := commands.Parse(raw)
	if err != nil {
		notice := m.setNotice(err.Error(), true)
		return m, notice
	}

	var follow tea.Cmd
	res, err := commands.Execute(cmd, commands.Handlers{
		Go: func(a commands.GoArgs) (commands.Result, error) {
			page, err := routes.Lookup(a.Path)
			if err != nil {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown page: %s", a.Path)}
			}
			m, follow = m.navigate(page.Path)
			return commands.Result{Message: fmt.Sprintf("opened %s", routes.MustLookup(m.Route).Title)}, nil
		},
		Filter: func(a commands.FilterArgs) (commands.Result, error) {
			filters := make(map[string]store.FilterValue, len(a.Pairs))
			for k, v := range a.Pairs {
				filters[k] = store.ParseFilterValue(v)
			}
			m.Prefs.SetFilters(filters)
			return commands.Result{Message: "filters applied: " + strings.Join(m.filterLabels(), " ")}, nil
		},
		ClearFilters: func() (commands.Result, error) {
			m.Prefs.ClearFilters()
			return commands.Result{Message: "filters cleared"}, nil
		},
		Notify: func(a commands.NotifyArgs) (commands.Result, error) {
			typ, err := model.ParseNotificationType(a.Kind)
			if err != nil {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown notification type: %s", a.Kind)}
			}
			n := m.Notifications.Add(store.NotificationInput{
				Title:   titleCaser.String(string(typ)),
				Message: a.Message,
				Type:    typ,
			})
			return commands.Result{Message: fmt.Sprintf("added notification %s", shortID(n.ID))}, nil
		},
		Read: func(a commands.ReadArgs) (commands.Result, error) {
			if a.All {
				m.markAllRead()
				return commands.Result{Message: "all notifications marked read"}, nil
			}
			n, err := m.findNotification(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			m.Notifications.MarkAsRead(n.ID)
			return commands.Result{Message: fmt.Sprintf("marked %s read", shortID(n.ID))}, nil
		},
		Dismiss: func(a commands.DismissArgs) (commands.Result, error) {
			n, err := m.findNotification(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			m.Notifications.Remove(n.ID)
			return commands.Result{Message: fmt.Sprintf("dismissed %s", shortID(n.ID))}, nil
		},
		Logout: func() (commands.Result, error) {
			return commands.Result{}, nil
		},
	})
	if err != nil {
		m.logger.Debug("palette command failed", zap.String("input", raw), zap.Error(err))
		notice := m.setNotice(err.Error(), true)
		return m, notice
	}
	if cmd.Type == commands.TypeLogout {
		return m.logout("signed out")
	}
	notice := m.setNotice(res.Message, false)
	return m, tea.Batch(follow, notice)
}

// findNotification resolves an id prefix to exactly one notification.
func (m Model) findNotification(prefix string) (model.Notification, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	var matches []model.Notification
	for _, n := range m.Notifications.List() {
		if strings.HasPrefix(strings.ToLower(n.ID), prefix) {
			matches = append(matches, n)
		}
	}
	switch len(matches) {
	case 0:
		return model.Notification{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("no notification matches %q", prefix)}
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, 0, len(matches))
		for _, n := range matches {
			ids = append(ids, shortID(n.ID))
		}
		sort.Strings(ids)
		return model.Notification{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("%q is ambiguous: %s", prefix, strings.Join(ids, ", "))}
	}
}
