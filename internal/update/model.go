package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/recondash/recondash/internal/auth"
	"github.com/recondash/recondash/internal/config"
	"github.com/recondash/recondash/internal/model"
	"github.com/recondash/recondash/internal/routes"
	"github.com/recondash/recondash/internal/scheduler"
	"github.com/recondash/recondash/internal/storage"
	"github.com/recondash/recondash/internal/store"
	"go.uber.org/zap"
)

const (
	mfaCodeLength = 6

	noticeMFAFailed    = "Invalid or expired code. Please try again."
	noticeMFAMalformed = "Enter the 6-digit code."
	noticeLoginFailed  = "Invalid email or password."
	noticeLoginMissing = "Email and password are required."
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Palette       string
	Help          string
	Sidebar       string
	Notifications string
	ReadAll       string
	Dismiss       string
	Logout        string
	Quit          string
}

type LoginPhase string

const (
	LoginEditing    LoginPhase = "editing"
	LoginSubmitting LoginPhase = "submitting"
)

type LoginState struct {
	Phase    LoginPhase
	Email    string
	Password string
	Focus    int
	Notice   string
}

type MFAPhase string

const (
	MFAEnteringCode MFAPhase = "entering-code"
	MFASubmitting   MFAPhase = "submitting"
	MFASuccess      MFAPhase = "success"
	MFAFailed       MFAPhase = "failed"
)

type MFAState struct {
	Phase    MFAPhase
	Code     string
	Notice   string
	Attempts int
}

// CanSubmit reports whether the verify control is enabled.
func (s MFAState) CanSubmit() bool {
	return s.Phase != MFASubmitting
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type AuditState struct {
	Rows    []storage.AuditEvent
	Total   int
	Err     string
	Loading bool
}

// AuditLog is the slice of audit storage the dashboard needs.
type AuditLog interface {
	Record(ctx context.Context, ev model.AuditEvent) error
	ListEvents(ctx context.Context, filter storage.AuditListFilter) ([]storage.AuditEvent, error)
	CountEvents(ctx context.Context, kind string) (int, error)
}

type Model struct {
	Route                routes.Path
	Nav                  routes.NavState
	Notifications        *store.NotificationStore
	Prefs                *store.Preferences
	Session              *store.SessionStore
	Login                LoginState
	MFA                  MFAState
	Audit                AuditState
	Palette              CommandPaletteState
	HelpVisible          bool
	NotificationsVisible bool
	Status               StatusBar
	Keys                 GlobalKeyMap
	Quitting             bool
	LastError            error

	auth      auth.Client
	auditLog  AuditLog
	scheduler *scheduler.Engine
	logger    *zap.Logger
	cfg       config.RuntimeConfig
	now       func() time.Time

	noticeID   string
	noticeSeq  int
	signedInAt time.Time

	emailInput    textinput.Model
	passwordInput textinput.Model
	codeInput     textinput.Model
	commandInput  textinput.Model
	busySpinner   spinner.Model
	helpModel     help.Model
}

type Deps struct {
	Auth          auth.Client
	Audit         AuditLog
	Scheduler     *scheduler.Engine
	Logger        *zap.Logger
	Config        config.RuntimeConfig
	Now           func() time.Time
	Notifications *store.NotificationStore
}

type NavigateMsg struct {
	Path  routes.Path
	State routes.NavState
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type AddNotificationMsg struct {
	Input store.NotificationInput
}

type LoginResultMsg struct {
	Result auth.LoginResult
	Err    error
}

type MFAResultMsg struct {
	Session model.Session
	Err     error
}

type SchedulerEventMsg struct {
	Event scheduler.Event
}

type AuditLoadedMsg struct {
	Rows  []storage.AuditEvent
	Total int
	Err   error
}

func NewModel() Model {
	return NewModelWithDeps(Deps{})
}

func NewModelWithDeps(deps Deps) Model {
	cfg := withDefaults(deps.Config)
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notifications := deps.Notifications
	if notifications == nil {
		notifications = store.NewNotificationStore(
			store.WithClock(now),
			store.WithCapacity(cfg.NotificationCapacity),
		)
	}

	m := Model{
		Route:         routes.Login,
		Notifications: notifications,
		Prefs:         store.NewPreferences(),
		Session:       store.NewSessionStore(),
		Login:         LoginState{Phase: LoginEditing},
		MFA:           MFAState{Phase: MFAEnteringCode},
		Keys: GlobalKeyMap{
			Palette:       "/",
			Help:          "?",
			Sidebar:       "b",
			Notifications: "n",
			ReadAll:       "R",
			Dismiss:       "x",
			Logout:        "L",
			Quit:          "q",
		},
		auth:      deps.Auth,
		auditLog:  deps.Audit,
		scheduler: deps.Scheduler,
		logger:    logger,
		cfg:       cfg,
		now:       now,
	}
	m.initBubbleComponents()
	m.syncBubbleData()
	return m
}

// withDefaults fills unset durations and currency from config.Default.
// A zero NotificationCapacity stays zero: it means unbounded.
func withDefaults(cfg config.RuntimeConfig) config.RuntimeConfig {
	def := config.Default()
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.NoticeTTL <= 0 {
		cfg.NoticeTTL = def.NoticeTTL
	}
	if cfg.Currency == "" {
		cfg.Currency = def.Currency
	}
	return cfg
}

func (m *Model) initBubbleComponents() {
	m.emailInput = textinput.New()
	m.emailInput.Prompt = "> "
	m.emailInput.Placeholder = "you@company.com"
	m.emailInput.CharLimit = 254
	m.emailInput.Width = 40

	m.passwordInput = textinput.New()
	m.passwordInput.Prompt = "> "
	m.passwordInput.EchoMode = textinput.EchoPassword
	m.passwordInput.EchoCharacter = '*'
	m.passwordInput.CharLimit = 128
	m.passwordInput.Width = 40

	m.codeInput = textinput.New()
	m.codeInput.Prompt = "> "
	m.codeInput.Placeholder = "000000"
	m.codeInput.CharLimit = mfaCodeLength
	m.codeInput.Width = mfaCodeLength + 1

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.busySpinner = spinner.New()
	m.busySpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
}

// syncBubbleData copies model state into the bubble components so View can
// render them.
func (m *Model) syncBubbleData() {
	m.emailInput.SetValue(m.Login.Email)
	m.passwordInput.SetValue(m.Login.Password)
	m.codeInput.SetValue(m.MFA.Code)
	m.commandInput.SetValue(m.Palette.Input)

	m.emailInput.Blur()
	m.passwordInput.Blur()
	m.codeInput.Blur()
	m.commandInput.Blur()
	switch {
	case m.Palette.Active:
		m.commandInput.Focus()
	case m.Route == routes.Login && m.Login.Focus == 0:
		m.emailInput.Focus()
	case m.Route == routes.Login:
		m.passwordInput.Focus()
	case m.Route == routes.MFA:
		m.codeInput.Focus()
	}
}
