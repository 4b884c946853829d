// Package auth talks to the platform's authentication service.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/recondash/recondash/internal/model"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 15 * time.Second
	maxErrorRunes  = 200
)

var ErrMissingToken = errors.New("auth: response carried no access token")

// Error is a non-2xx answer from the auth service.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth: service returned %d", e.Status)
	}
	return fmt.Sprintf("auth: service returned %d: %s", e.Status, e.Message)
}

// LoginResult is the outcome of a password login. When MFARequired is set
// the caller must continue with VerifyMFA using SessionID.
type LoginResult struct {
	MFARequired bool
	SessionID   string
	Session     model.Session
}

type Client interface {
	Login(ctx context.Context, email, password string) (LoginResult, error)
	VerifyMFA(ctx context.Context, code, sessionID string) (model.Session, error)
}

type HTTPClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
	now     func() time.Time
}

type Option func(*HTTPClient)

func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) {
		if c != nil {
			h.http = c
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(h *HTTPClient) {
		if l != nil {
			h.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(h *HTTPClient) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHTTPClient builds a client for the service rooted at baseURL. A
// non-positive timeout selects the default.
func NewHTTPClient(baseURL string, timeout time.Duration, opts ...Option) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	h := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Code      string `json:"code"`
	SessionID string `json:"session_id"`
}

type tokenResponse struct {
	AccessToken string     `json:"access_token"`
	User        model.User `json:"user"`
	ExpiresIn   int64      `json:"expires_in"`
	MFARequired bool       `json:"mfa_required"`
	SessionID   string     `json:"session_id"`
}

type errorResponse struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

func (h *HTTPClient) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var resp tokenResponse
	if err := h.post(ctx, "/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return LoginResult{}, err
	}
	if resp.MFARequired {
		if strings.TrimSpace(resp.SessionID) == "" {
			return LoginResult{}, errors.New("auth: mfa required but no session id returned")
		}
		return LoginResult{MFARequired: true, SessionID: resp.SessionID}, nil
	}
	sess, err := h.session(resp)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Session: sess}, nil
}

func (h *HTTPClient) VerifyMFA(ctx context.Context, code, sessionID string) (model.Session, error) {
	var resp tokenResponse
	if err := h.post(ctx, "/auth/mfa/verify", verifyRequest{Code: code, SessionID: sessionID}, &resp); err != nil {
		return model.Session{}, err
	}
	return h.session(resp)
}

func (h *HTTPClient) session(resp tokenResponse) (model.Session, error) {
	if strings.TrimSpace(resp.AccessToken) == "" {
		return model.Session{}, ErrMissingToken
	}
	sess := model.Session{AccessToken: resp.AccessToken, User: resp.User}
	if resp.ExpiresIn > 0 {
		sess.ExpiresAt = h.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return sess, nil
}

func (h *HTTPClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("auth: encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("auth: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	started := h.now()
	resp, err := h.http.Do(req)
	if err != nil {
		h.logger.Warn("auth request failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("auth: executing request: %w", err)
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("auth: reading response: %w", err)
	}
	h.logger.Debug("auth request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", h.now().Sub(started)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("auth: parsing response: %w", err)
	}
	return nil
}

func errorMessage(raw []byte) string {
	var e errorResponse
	if err := json.Unmarshal(raw, &e); err == nil {
		if e.Detail != "" {
			return e.Detail
		}
		if e.Error != "" {
			return e.Error
		}
	}
	msg := strings.TrimSpace(string(raw))
	if r := []rune(msg); len(r) > maxErrorRunes {
		msg = string(r[:maxErrorRunes])
	}
	return msg
}
