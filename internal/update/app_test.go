package update

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/recondash/recondash/internal/auth"
	"github.com/recondash/recondash/internal/config"
	"github.com/recondash/recondash/internal/model"
	"github.com/recondash/recondash/internal/routes"
	"github.com/recondash/recondash/internal/scheduler"
	"github.com/recondash/recondash/internal/storage"
	"github.com/recondash/recondash/internal/store"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeAuth struct {
	loginResult auth.LoginResult
	loginErr    error
	session     model.Session
	verifyErr   error

	loginCalls  int
	verifyCalls int
	lastCode    string
	lastSession string
}

func (f *fakeAuth) Login(_ context.Context, _, _ string) (auth.LoginResult, error) {
	f.loginCalls++
	return f.loginResult, f.loginErr
}

func (f *fakeAuth) VerifyMFA(_ context.Context, code, sessionID string) (model.Session, error) {
	f.verifyCalls++
	f.lastCode = code
	f.lastSession = sessionID
	return f.session, f.verifyErr
}

type fakeAudit struct {
	events []model.AuditEvent
}

func (f *fakeAudit) Record(_ context.Context, ev model.AuditEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeAudit) ListEvents(_ context.Context, filter storage.AuditListFilter) ([]storage.AuditEvent, error) {
	var out []storage.AuditEvent
	for i := len(f.events) - 1; i >= 0; i-- {
		ev := f.events[i]
		out = append(out, storage.AuditEvent{ID: ev.ID, Kind: string(ev.Kind), Actor: ev.Actor, Detail: ev.Detail, CreatedAt: ev.CreatedAt})
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeAudit) CountEvents(_ context.Context, _ string) (int, error) {
	return len(f.events), nil
}

func (f *fakeAudit) kinds() []model.AuditKind {
	out := make([]model.AuditKind, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Kind)
	}
	return out
}

func newTestModel(t *testing.T, client auth.Client, audit *fakeAudit) Model {
	t.Helper()
	seq := 0
	notifications := store.NewNotificationStore(
		store.WithClock(func() time.Time { return testNow }),
		store.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("note-%02d", seq)
		}),
	)
	deps := Deps{
		Auth:          client,
		Config:        config.Default(),
		Now:           func() time.Time { return testNow },
		Notifications: notifications,
	}
	if audit != nil {
		deps.Audit = audit
	}
	return NewModelWithDeps(deps)
}

func testSession() model.Session {
	return model.Session{
		AccessToken: "tok-1",
		User:        model.User{ID: "u-1", Email: "ana@example.com", Name: "Ana Ortiz", Role: "controller"},
		ExpiresAt:   testNow.Add(time.Hour),
	}
}

func signedIn(t *testing.T, m Model) Model {
	t.Helper()
	if err := m.Session.Set(testSession()); err != nil {
		t.Fatalf("set session: %v", err)
	}
	m, _ = send(m, NavigateMsg{Path: routes.Dashboard})
	if m.Route != routes.Dashboard {
		t.Fatalf("expected dashboard after sign in, got %s", m.Route)
	}
	return m
}

func send(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func press(m Model, k string) (Model, tea.Cmd) {
	switch k {
	case "enter":
		return send(m, tea.KeyMsg{Type: tea.KeyEnter})
	case "tab":
		return send(m, tea.KeyMsg{Type: tea.KeyTab})
	case "esc":
		return send(m, tea.KeyMsg{Type: tea.KeyEsc})
	case "backspace":
		return send(m, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	return send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
}

func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// settle runs cmd and feeds every resulting message back into the model,
// skipping spinner ticks.
func settle(m Model, cmd tea.Cmd) Model {
	for _, msg := range drain(cmd) {
		if _, ok := msg.(spinner.TickMsg); ok || msg == nil {
			continue
		}
		var next tea.Cmd
		m, next = send(m, msg)
		m = settle(m, next)
	}
	return m
}

func TestMFASubmitWithoutSessionIDRedirectsToLogin(t *testing.T) {
	client := &fakeAuth{}
	m := newTestModel(t, client, nil)
	m.Route = routes.MFA
	m.MFA.Code = "123456"

	m, cmd := press(m, "enter")
	m = settle(m, cmd)

	if m.Route != routes.Login {
		t.Fatalf("expected redirect to login, got %s", m.Route)
	}
	if client.verifyCalls != 0 {
		t.Fatalf("remote verify called %d times", client.verifyCalls)
	}
}

func TestMFANavigationWithoutSessionIDIsGuarded(t *testing.T) {
	m := newTestModel(t, &fakeAuth{}, nil)
	m, _ = send(m, NavigateMsg{Path: routes.MFA})
	if m.Route != routes.Login {
		t.Fatalf("expected login, got %s", m.Route)
	}
	m, _ = send(m, NavigateMsg{Path: routes.MFA, State: routes.NavState{SessionID: "sess-1"}})
	if m.Route != routes.MFA || m.MFA.Phase != MFAEnteringCode {
		t.Fatalf("expected mfa entry state, got %s / %s", m.Route, m.MFA.Phase)
	}
}

func TestMFAFailureReturnsToEntryState(t *testing.T) {
	client := &fakeAuth{verifyErr: &auth.Error{Status: 401, Message: "code expired"}}
	audit := &fakeAudit{}
	m := newTestModel(t, client, audit)
	m, _ = send(m, NavigateMsg{Path: routes.MFA, State: routes.NavState{SessionID: "sess-1"}})

	m, _ = press(m, "12a3456")
	if m.MFA.Code != "123456" {
		t.Fatalf("code = %q, want digits only", m.MFA.Code)
	}
	m, cmd := press(m, "enter")
	if m.MFA.Phase != MFASubmitting || m.MFA.CanSubmit() {
		t.Fatalf("expected submitting with submit disabled, got %s", m.MFA.Phase)
	}
	if !strings.Contains(m.View(), "Verify...") {
		t.Fatalf("expected spinner while submitting:\n%s", m.View())
	}

	m, again := press(m, "enter")
	if again != nil {
		t.Fatal("second submit while pending should not issue a command")
	}
	m = settle(m, cmd)

	if client.verifyCalls != 1 {
		t.Fatalf("verify calls = %d, want 1", client.verifyCalls)
	}
	if client.lastCode != "123456" || client.lastSession != "sess-1" {
		t.Fatalf("unexpected verify args: %q %q", client.lastCode, client.lastSession)
	}
	if m.Route != routes.MFA || m.MFA.Phase != MFAEnteringCode || !m.MFA.CanSubmit() {
		t.Fatalf("expected entry state with submit enabled, got %s / %s", m.Route, m.MFA.Phase)
	}
	if m.MFA.Notice != "Invalid or expired code. Please try again." {
		t.Fatalf("notice = %q", m.MFA.Notice)
	}
	if m.MFA.Code != "123456" {
		t.Fatalf("code should be retained, got %q", m.MFA.Code)
	}
	items := m.Notifications.List()
	if len(items) != 1 || items[0].Type != model.NotificationError {
		t.Fatalf("expected one error notification, got %+v", items)
	}
	if diff := cmp.Diff([]model.AuditKind{model.AuditMFAFailed}, audit.kinds()); diff != "" {
		t.Fatalf("audit kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestMFAMalformedCodeRefusedLocally(t *testing.T) {
	client := &fakeAuth{}
	m := newTestModel(t, client, nil)
	m, _ = send(m, NavigateMsg{Path: routes.MFA, State: routes.NavState{SessionID: "sess-1"}})
	m, _ = press(m, "123")
	m, cmd := press(m, "enter")
	if cmd != nil || client.verifyCalls != 0 {
		t.Fatal("short code should not reach the auth service")
	}
	if m.MFA.Notice != noticeMFAMalformed {
		t.Fatalf("notice = %q", m.MFA.Notice)
	}
	m, _ = press(m, "backspace")
	if m.MFA.Code != "12" {
		t.Fatalf("backspace left %q", m.MFA.Code)
	}
}

func TestMFASuccessLandsOnDashboard(t *testing.T) {
	client := &fakeAuth{session: testSession()}
	audit := &fakeAudit{}
	m := newTestModel(t, client, audit)
	m, _ = send(m, NavigateMsg{Path: routes.MFA, State: routes.NavState{SessionID: "sess-1"}})
	m, _ = press(m, "654321")
	m, cmd := press(m, "enter")
	m = settle(m, cmd)

	if m.Route != routes.Dashboard {
		t.Fatalf("expected dashboard, got %s", m.Route)
	}
	if m.Session.Token() != "tok-1" {
		t.Fatalf("token = %q", m.Session.Token())
	}
	if m.Nav.SessionID != "" {
		t.Fatal("transient session id should be cleared after verification")
	}
	items := m.Notifications.List()
	if len(items) != 1 || items[0].Type != model.NotificationSuccess {
		t.Fatalf("expected success notification, got %+v", items)
	}
	if diff := cmp.Diff([]model.AuditKind{model.AuditMFASucceeded}, audit.kinds()); diff != "" {
		t.Fatalf("audit kinds mismatch (-want +got):\n%s", diff)
	}
	if view := m.View(); !strings.Contains(view, "Ana Ortiz") || !strings.Contains(view, "(AO)") {
		t.Fatalf("dashboard should show the user:\n%s", view)
	}
}

func TestLoginWithMFARequiredNavigatesToMFA(t *testing.T) {
	client := &fakeAuth{loginResult: auth.LoginResult{MFARequired: true, SessionID: "sess-42"}}
	audit := &fakeAudit{}
	m := newTestModel(t, client, audit)

	m, _ = press(m, "ana@example.com")
	m, _ = press(m, "tab")
	m, _ = press(m, "hunter2")
	if m.Login.Email != "ana@example.com" || m.Login.Password != "hunter2" {
		t.Fatalf("unexpected form state: %+v", m.Login)
	}
	m, cmd := press(m, "enter")
	if m.Login.Phase != LoginSubmitting {
		t.Fatalf("expected submitting, got %s", m.Login.Phase)
	}
	m = settle(m, cmd)

	if m.Route != routes.MFA || m.Nav.SessionID != "sess-42" {
		t.Fatalf("expected mfa with session id, got %s %+v", m.Route, m.Nav)
	}
	if m.Login.Password != "" {
		t.Fatal("password should be cleared after submit")
	}
	if diff := cmp.Diff([]model.AuditKind{model.AuditMFAChallenged}, audit.kinds()); diff != "" {
		t.Fatalf("audit kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestLoginFailureAndMissingFields(t *testing.T) {
	client := &fakeAuth{loginErr: errors.New("bad credentials")}
	m := newTestModel(t, client, nil)

	m, _ = press(m, "tab")
	m, cmd := press(m, "enter")
	if cmd != nil || m.Login.Notice != noticeLoginMissing {
		t.Fatalf("expected local refusal, notice=%q", m.Login.Notice)
	}

	m, _ = press(m, "tab")
	m, _ = press(m, "ana@example.com")
	m, _ = press(m, "tab")
	m, _ = press(m, "wrong")
	m, cmd = press(m, "enter")
	m = settle(m, cmd)
	if m.Route != routes.Login || m.Login.Notice != noticeLoginFailed || m.Login.Phase != LoginEditing {
		t.Fatalf("unexpected state after failure: %s %+v", m.Route, m.Login)
	}
	if client.loginCalls != 1 {
		t.Fatalf("login calls = %d", client.loginCalls)
	}
}

func TestDirectTokenLoginLandsOnDashboard(t *testing.T) {
	client := &fakeAuth{loginResult: auth.LoginResult{Session: testSession()}}
	m := newTestModel(t, client, nil)
	m, _ = press(m, "ana@example.com")
	m, _ = press(m, "tab")
	m, _ = press(m, "pw")
	m, cmd := press(m, "enter")
	m = settle(m, cmd)
	if m.Route != routes.Dashboard || !m.Session.Authenticated(testNow) {
		t.Fatalf("expected authenticated dashboard, got %s", m.Route)
	}
}

func TestProtectedRoutesRedirectWhenSignedOut(t *testing.T) {
	m := newTestModel(t, &fakeAuth{}, nil)
	for _, p := range routes.Navigable() {
		m, _ = send(m, NavigateMsg{Path: p.Path})
		if m.Route != routes.Login {
			t.Fatalf("%s: expected login, got %s", p.Path, m.Route)
		}
	}
}

func TestSidebarKeysNavigateAndToggle(t *testing.T) {
	m := signedIn(t, newTestModel(t, &fakeAuth{}, nil))

	m, _ = press(m, "r")
	if m.Route != routes.Reports {
		t.Fatalf("expected reports, got %s", m.Route)
	}
	if !strings.Contains(m.View(), "recondash | Reports") {
		t.Fatalf("header should name the page:\n%s", m.View())
	}
	m, _ = press(m, "b")
	if !m.Prefs.SidebarCollapsed() {
		t.Fatal("expected sidebar collapsed")
	}
	m, _ = press(m, "b")
	if m.Prefs.SidebarCollapsed() {
		t.Fatal("expected sidebar expanded")
	}
}

func TestNotificationKeys(t *testing.T) {
	audit := &fakeAudit{}
	m := signedIn(t, newTestModel(t, &fakeAuth{}, audit))
	m, _ = send(m, AddNotificationMsg{Input: store.NotificationInput{Title: "Batch", Message: "late", Type: model.NotificationWarning}})
	m, _ = send(m, AddNotificationMsg{Input: store.NotificationInput{Title: "Export", Message: "done"}})
	if m.Notifications.UnreadCount() != 2 {
		t.Fatalf("unread = %d", m.Notifications.UnreadCount())
	}

	m, _ = press(m, "n")
	if !m.NotificationsVisible || !strings.Contains(m.View(), "notifications (2 unread)") {
		t.Fatalf("expected notification list:\n%s", m.View())
	}

	m, _ = press(m, "x")
	if m.Notifications.Len() != 1 || m.Notifications.UnreadCount() != 1 {
		t.Fatalf("dismiss newest: len=%d unread=%d", m.Notifications.Len(), m.Notifications.UnreadCount())
	}
	m, _ = press(m, "R")
	if m.Notifications.UnreadCount() != 0 {
		t.Fatalf("unread after read all = %d", m.Notifications.UnreadCount())
	}
	if diff := cmp.Diff([]model.AuditKind{model.AuditNotificationsCleared}, audit.kinds()); diff != "" {
		t.Fatalf("audit kinds mismatch (-want +got):\n%s", diff)
	}
}

func runPalette(m Model, input string) (Model, tea.Cmd) {
	m, _ = press(m, "/")
	m, _ = press(m, input)
	return press(m, "enter")
}

func TestPaletteCommands(t *testing.T) {
	m := signedIn(t, newTestModel(t, &fakeAuth{}, nil))

	m, _ = runPalette(m, "notify warning settlement batch delayed")
	items := m.Notifications.List()
	if len(items) != 1 || items[0].Title != "Warning" || items[0].Message != "settlement batch delayed" {
		t.Fatalf("unexpected notifications: %+v", items)
	}
	m, _ = runPalette(m, "notify urgent nope")
	if !m.Status.IsError || m.Notifications.Len() != 1 {
		t.Fatalf("unknown type should fail, status=%+v", m.Status)
	}

	m, _ = runPalette(m, "read "+items[0].ID[:6])
	if m.Notifications.UnreadCount() != 0 {
		t.Fatalf("read by prefix failed: %+v", m.Status)
	}
	m, _ = runPalette(m, "dismiss "+items[0].ID)
	if m.Notifications.Len() != 0 {
		t.Fatalf("dismiss failed: %+v", m.Status)
	}

	m, _ = runPalette(m, "filter status=unmatched amount_min=1000")
	want := map[string]store.FilterValue{
		"status":     store.StringFilter("unmatched"),
		"amount_min": store.NumberFilter(1000),
	}
	if diff := cmp.Diff(want, m.Prefs.Filters()); diff != "" {
		t.Fatalf("filters mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(m.Status.Text, "amount_min=$1,000.00") {
		t.Fatalf("status should show currency filter, got %q", m.Status.Text)
	}
	m, _ = runPalette(m, "clear-filters")
	if len(m.Prefs.Filters()) != 0 {
		t.Fatal("filters not cleared")
	}

	m, cmd := runPalette(m, "go /audit")
	m = settle(m, cmd)
	if m.Route != routes.Audit || m.Audit.Err != "Audit log is disabled." {
		t.Fatalf("expected audit page with disabled log, got %s %+v", m.Route, m.Audit)
	}

	m, _ = runPalette(m, "go /nowhere")
	if !m.Status.IsError || m.Route != routes.Audit {
		t.Fatalf("unknown page should fail without navigating, got %s %+v", m.Route, m.Status)
	}

	m, _ = runPalette(m, "logout")
	if m.Route != routes.Login || m.Session.Token() != "" {
		t.Fatalf("expected signed out, got %s", m.Route)
	}
}

func TestPaletteAmbiguousPrefix(t *testing.T) {
	m := signedIn(t, newTestModel(t, &fakeAuth{}, nil))
	m, _ = send(m, AddNotificationMsg{Input: store.NotificationInput{Title: "a"}})
	m, _ = send(m, AddNotificationMsg{Input: store.NotificationInput{Title: "b"}})
	m, _ = runPalette(m, "dismiss note")
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "ambiguous") || m.Notifications.Len() != 2 {
		t.Fatalf("expected ambiguity error, got %+v", m.Status)
	}
}

func TestReadAllWithoutUnreadSkipsAudit(t *testing.T) {
	audit := &fakeAudit{}
	m := signedIn(t, newTestModel(t, &fakeAuth{}, audit))
	m, _ = press(m, "R")
	m, _ = runPalette(m, "read all")
	if len(audit.events) != 0 {
		t.Fatalf("expected no audit events, got %v", audit.kinds())
	}

	m, _ = send(m, AddNotificationMsg{Input: store.NotificationInput{Title: "Batch", Message: "late"}})
	m, _ = press(m, "R")
	m, _ = press(m, "R")
	if diff := cmp.Diff([]model.AuditKind{model.AuditNotificationsCleared}, audit.kinds()); diff != "" {
		t.Fatalf("audit kinds mismatch (-want +got):\n%s", diff)
	}
	if audit.events[0].Detail != "1 unread" {
		t.Fatalf("detail = %q", audit.events[0].Detail)
	}
}

// deadlineAudit rejects events whose context is already done.
type deadlineAudit struct {
	fakeAudit
}

func (d *deadlineAudit) Record(ctx context.Context, ev model.AuditEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.fakeAudit.Record(ctx, ev)
}

func TestPartialConfigGetsDefaults(t *testing.T) {
	audit := &deadlineAudit{}
	m := NewModelWithDeps(Deps{
		Auth:   &fakeAuth{},
		Config: config.RuntimeConfig{Currency: "EUR"},
		Now:    func() time.Time { return testNow },
		Audit:  audit,
	})
	def := config.Default()
	if m.cfg.RequestTimeout != def.RequestTimeout || m.cfg.NoticeTTL != def.NoticeTTL {
		t.Fatalf("timeouts not defaulted: %+v", m.cfg)
	}
	if m.cfg.Currency != "EUR" || m.cfg.AuditDBPath != "" || m.cfg.NotificationCapacity != 0 {
		t.Fatalf("explicit fields changed: %+v", m.cfg)
	}

	m = signedIn(t, m)
	m, _ = send(m, AddNotificationMsg{Input: store.NotificationInput{Title: "Batch", Message: "late"}})
	m, _ = press(m, "R")
	if len(audit.events) != 1 {
		t.Fatalf("expected audit event recorded within deadline, got %d", len(audit.events))
	}
}

func TestAuditPageLoadsEvents(t *testing.T) {
	audit := &fakeAudit{}
	client := &fakeAuth{session: testSession()}
	m := newTestModel(t, client, audit)
	m, _ = send(m, NavigateMsg{Path: routes.MFA, State: routes.NavState{SessionID: "s"}})
	m, _ = press(m, "111111")
	m, cmd := press(m, "enter")
	m = settle(m, cmd)

	m, cmd = press(m, "a")
	if !m.Audit.Loading {
		t.Fatal("expected audit load to start")
	}
	m = settle(m, cmd)
	if m.Audit.Total != 1 || len(m.Audit.Rows) != 1 || m.Audit.Rows[0].Kind != string(model.AuditMFASucceeded) {
		t.Fatalf("unexpected audit state: %+v", m.Audit)
	}
	if !strings.Contains(m.View(), "mfa_succeeded") {
		t.Fatalf("audit view missing event:\n%s", m.View())
	}
}

func TestNoticeExpiryClearsOnlyCurrentNotice(t *testing.T) {
	m := signedIn(t, newTestModel(t, &fakeAuth{}, nil))
	m, _ = send(m, SetStatusMsg{Text: "first"})
	first := m.noticeID
	m, _ = send(m, SetStatusMsg{Text: "second"})

	m, _ = send(m, SchedulerEventMsg{Event: scheduler.Event{ID: first, Kind: scheduler.KindNoticeExpired}})
	if m.Status.Text != "second" {
		t.Fatalf("stale expiry cleared the status: %+v", m.Status)
	}
	m, _ = send(m, SchedulerEventMsg{Event: scheduler.Event{ID: m.noticeID, Kind: scheduler.KindNoticeExpired}})
	if m.Status.Text != "" {
		t.Fatalf("expected status cleared, got %+v", m.Status)
	}
}

func TestSessionExpiryEventSignsOut(t *testing.T) {
	audit := &fakeAudit{}
	m := signedIn(t, newTestModel(t, &fakeAuth{}, audit))
	sess, _ := m.Session.Current()

	m, _ = send(m, SchedulerEventMsg{Event: scheduler.Event{ID: "session:other:1", Kind: scheduler.KindSessionExpired}})
	if m.Route != routes.Dashboard {
		t.Fatal("unrelated expiry event should be ignored")
	}

	m, _ = send(m, SchedulerEventMsg{Event: scheduler.Event{ID: sessionEventID(sess), Kind: scheduler.KindSessionExpired}})
	if m.Route != routes.Login || m.Session.Token() != "" {
		t.Fatalf("expected sign out, got %s", m.Route)
	}
	if m.Login.Notice != noticeSessionExpired {
		t.Fatalf("notice = %q", m.Login.Notice)
	}
	if diff := cmp.Diff([]model.AuditKind{model.AuditSessionExpired}, audit.kinds()); diff != "" {
		t.Fatalf("audit kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestQuitKeys(t *testing.T) {
	m := newTestModel(t, &fakeAuth{}, nil)
	m, _ = press(m, "q")
	if m.Quitting {
		t.Fatal("q on the login form should type, not quit")
	}
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !next.(Model).Quitting || cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
}
