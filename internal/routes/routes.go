// Package routes maps dashboard paths to pages.
package routes

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownRoute = errors.New("routes: unknown route")

type Path string

const (
	Login      Path = "/login"
	MFA        Path = "/mfa"
	Dashboard  Path = "/dashboard"
	Matching   Path = "/matching"
	Settlement Path = "/settlement"
	GLPosting  Path = "/gl-posting"
	Approvals  Path = "/approvals"
	Reports    Path = "/reports"
	Audit      Path = "/audit"
	Partners   Path = "/partners"
	Roles      Path = "/roles"
	Users      Path = "/users"
)

type Page struct {
	Path        Path
	Title       string
	Section     string
	Public      bool
	Placeholder bool
	// Key is the single-key shortcut shown in the sidebar; empty for
	// pages not listed there.
	Key string
}

// PlaceholderText is the body rendered for pages without a data view yet.
func (p Page) PlaceholderText() string {
	return p.Title + " will be displayed here."
}

var pages = []Page{
	{Path: Login, Title: "Sign In", Public: true},
	{Path: MFA, Title: "Verify Code", Public: true},
	{Path: Dashboard, Title: "Dashboard", Section: "Overview", Key: "g"},
	{Path: Matching, Title: "Matching", Section: "Reconciliation", Placeholder: true, Key: "m"},
	{Path: Settlement, Title: "Settlement", Section: "Reconciliation", Placeholder: true, Key: "s"},
	{Path: GLPosting, Title: "GL Posting", Section: "Reconciliation", Placeholder: true, Key: "p"},
	{Path: Approvals, Title: "Approvals", Section: "Reconciliation", Placeholder: true, Key: "v"},
	{Path: Reports, Title: "Reports", Section: "Insights", Placeholder: true, Key: "r"},
	{Path: Audit, Title: "Audit Log", Section: "Insights", Key: "a"},
	{Path: Partners, Title: "Partners", Section: "Administration", Placeholder: true, Key: "t"},
	{Path: Roles, Title: "Roles", Section: "Administration", Placeholder: true, Key: "o"},
	{Path: Users, Title: "Users", Section: "Administration", Placeholder: true, Key: "u"},
}

var byPath = func() map[Path]Page {
	out := make(map[Path]Page, len(pages))
	for _, p := range pages {
		out[p.Path] = p
	}
	return out
}()

// Normalize trims whitespace and trailing slashes and adds the leading one.
func Normalize(raw string) Path {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimRight(raw, "/")
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return Path(strings.ToLower(raw))
}

func Lookup(raw string) (Page, error) {
	p, ok := byPath[Normalize(raw)]
	if !ok {
		return Page{}, fmt.Errorf("%w: %q", ErrUnknownRoute, raw)
	}
	return p, nil
}

func MustLookup(path Path) Page {
	p, err := Lookup(string(path))
	if err != nil {
		panic(err)
	}
	return p
}

// Navigable returns the sidebar pages in display order.
func Navigable() []Page {
	out := make([]Page, 0, len(pages))
	for _, p := range pages {
		if p.Key != "" {
			out = append(out, p)
		}
	}
	return out
}

// ByKey finds the sidebar page bound to key.
func ByKey(key string) (Page, bool) {
	for _, p := range pages {
		if p.Key != "" && p.Key == key {
			return p, true
		}
	}
	return Page{}, false
}

// NavState is transient state carried from one page to the next.
type NavState struct {
	SessionID string
}

// Resolve applies the auth guard: protected pages redirect to Login when
// the caller is not authenticated, and MFA without a session id redirects
// to Login as well.
func Resolve(target Path, authenticated bool, state NavState) Path {
	p, ok := byPath[target]
	if !ok {
		if authenticated {
			return Dashboard
		}
		return Login
	}
	if p.Path == MFA && strings.TrimSpace(state.SessionID) == "" {
		return Login
	}
	if !p.Public && !authenticated {
		return Login
	}
	return p.Path
}
