package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/recondash/recondash/internal/routes"
	"github.com/recondash/recondash/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return m.renderHelpView()
}

func (m Model) renderHelpView() string {
	bindings := m.helpBindings()
	var plain []string
	for _, kb := range m.pageBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	title := string(m.Route)
	if page, err := routes.Lookup(string(m.Route)); err == nil {
		title = page.Title
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentPage: title,
		Bindings:    plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.Palette, Action: "open command palette"},
		{Key: m.Keys.Sidebar, Action: "collapse/expand sidebar"},
		{Key: m.Keys.Notifications, Action: "show/hide notifications"},
		{Key: m.Keys.ReadAll, Action: "mark all notifications read"},
		{Key: m.Keys.Dismiss, Action: "dismiss newest notification"},
		{Key: m.Keys.Logout, Action: "sign out"},
		{Key: m.Keys.Help, Action: "toggle help panel"},
		{Key: m.Keys.Quit, Action: "quit app"},
	}
}

func (m Model) pageBindings() []KeyBinding {
	switch m.Route {
	case routes.Login:
		return []KeyBinding{
			{Key: "tab", Action: "switch field"},
			{Key: "enter", Action: "sign in"},
		}
	case routes.MFA:
		return []KeyBinding{
			{Key: "0-9", Action: "enter code"},
			{Key: "enter", Action: "verify"},
			{Key: "esc", Action: "back to sign in"},
		}
	}
	out := make([]KeyBinding, 0, len(routes.Navigable()))
	for _, p := range routes.Navigable() {
		out = append(out, KeyBinding{Key: p.Key, Action: "open " + p.Title})
	}
	return out
}

func (m Model) helpBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.globalBindings())+len(m.pageBindings()))
	for _, kb := range m.globalBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	for _, kb := range m.pageBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
