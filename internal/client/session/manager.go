// Package session owns the current-user identity and the
// login/register/restore/logout flows. All session mutation goes
// through the Manager; consumers get read-only snapshots.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"framecraft/internal/client/gateway"
	"framecraft/internal/client/shell"
	"framecraft/internal/client/tokenstore"
)

// State is the session lifecycle state
type State int

const (
	Uninitialized State = iota
	Restoring
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Restoring:
		return "restoring"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	}
	return "unknown"
}

// ErrLoginFailed marks a login that could not establish a complete
// session. Tokens are rolled back before it is returned.
var ErrLoginFailed = errors.New("login failed")

// User is the read-only session identity snapshot
type User struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	ProfileImage string `json:"profile_image,omitempty"`
}

// Manager drives the session state machine
type Manager struct {
	mu    sync.Mutex
	api   *gateway.Client
	store *tokenstore.Store
	state State
	user  User
}

// NewManager creates a session manager in the uninitialized state
func NewManager(api *gateway.Client, store *tokenstore.Store) *Manager {
	return &Manager{api: api, store: store, state: Uninitialized}
}

// State returns the current session state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentUser returns a copy of the session user; ok is false unless
// the session is authenticated.
func (m *Manager) CurrentUser() (User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Authenticated {
		return User{}, false
	}
	return m.user, true
}

// Restore rebuilds the session from stored tokens on process start.
// It never surfaces an error: an ordinary logged-out visitor lands in
// the anonymous state silently, and unexpected failures are logged,
// not shown.
func (m *Manager) Restore(ctx context.Context) {
	m.setState(Restoring)

	_, ok, err := m.store.Load()
	if err != nil || !ok {
		// No stored tokens: anonymous without touching the network.
		m.becomeAnonymous()
		return
	}

	user, err := m.fetchMe(ctx)
	if err != nil {
		if !errors.Is(err, gateway.ErrAuthExpired) {
			log.Printf("session restore failed: %v", err)
		}
		_ = m.store.Clear()
		m.becomeAnonymous()
		return
	}
	if user.Role == "" {
		_ = m.store.Clear()
		m.becomeAnonymous()
		return
	}

	m.becomeAuthenticated(user)
}

// loginPayload is the data payload of POST /auth/login
type loginPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login authenticates with the backend and returns the role's landing
// route. Stale tokens are cleared first so an old session can never
// bleed into the new one; any incomplete response rolls the store back
// and leaves the session anonymous.
func (m *Manager) Login(ctx context.Context, email, password string) (shell.Route, error) {
	_ = m.store.Clear()

	body := map[string]string{"email": email, "password": password}
	data, err := m.api.Post(ctx, "/auth/login", body, gateway.Unauthenticated())
	if err != nil {
		m.becomeAnonymous()
		return "", fmt.Errorf("%w: %s", ErrLoginFailed, normalizeMessage(err))
	}

	var tokens loginPayload
	if err := json.Unmarshal(data, &tokens); err != nil {
		m.becomeAnonymous()
		return "", fmt.Errorf("%w: unexpected server response", ErrLoginFailed)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		m.becomeAnonymous()
		return "", fmt.Errorf("%w: server did not issue a complete token pair", ErrLoginFailed)
	}

	if err := m.store.Save(tokenstore.TokenPair{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}); err != nil {
		m.becomeAnonymous()
		return "", fmt.Errorf("%w: could not persist session", ErrLoginFailed)
	}

	user, err := m.fetchMe(ctx)
	if err != nil || user.Role == "" {
		_ = m.store.Clear()
		m.becomeAnonymous()
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrLoginFailed, normalizeMessage(err))
		}
		return "", fmt.Errorf("%w: account has no role assigned", ErrLoginFailed)
	}

	m.becomeAuthenticated(user)
	return shell.DestinationFor(user.Role), nil
}

// Register creates an account then logs straight into it. Backend
// validation failures of any shape are normalized into one
// human-readable message.
func (m *Manager) Register(ctx context.Context, email, username, role, password string) (shell.Route, error) {
	body := map[string]string{
		"email":    email,
		"username": username,
		"role":     role,
		"password": password,
	}
	if _, err := m.api.Post(ctx, "/auth/register", body, gateway.Unauthenticated()); err != nil {
		return "", errors.New(normalizeMessage(err))
	}

	return m.Login(ctx, email, password)
}

// Logout tears the session down. It never fails: the backend revoke is
// best effort, the local state always ends anonymous.
func (m *Manager) Logout(ctx context.Context) shell.Route {
	if pair, ok, _ := m.store.Load(); ok {
		body := map[string]string{"refresh_token": pair.RefreshToken}
		_, _ = m.api.Post(ctx, "/auth/logout", body, gateway.Unauthenticated())
	}

	_ = m.store.Clear()
	m.becomeAnonymous()
	return shell.RouteLogin
}

// UpdateUser replaces the in-memory user after a profile edit. Tokens
// are untouched.
func (m *Manager) UpdateUser(user User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Authenticated {
		m.user = user
	}
}

func (m *Manager) fetchMe(ctx context.Context) (User, error) {
	data, err := m.api.Get(ctx, "/auth/me")
	if err != nil {
		return User{}, err
	}

	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return User{}, fmt.Errorf("decode user: %w", err)
	}
	return user, nil
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

func (m *Manager) becomeAnonymous() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Anonymous
	m.user = User{}
}

func (m *Manager) becomeAuthenticated(user User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Authenticated
	m.user = user
}

// normalizeMessage flattens any gateway error into one message a form
// can display: a plain backend message stays as-is, a field-validation
// list is joined field by field, anything else falls back to the
// error text.
func normalizeMessage(err error) string {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		if len(apiErr.Fields) > 0 {
			parts := make([]string, 0, len(apiErr.Fields))
			for _, f := range apiErr.Fields {
				if f.Field != "" {
					parts = append(parts, f.Field+": "+f.Message)
				} else {
					parts = append(parts, f.Message)
				}
			}
			return strings.Join(parts, "; ")
		}
		return apiErr.Message
	}
	if errors.Is(err, gateway.ErrAuthExpired) {
		return "authentication expired, please log in"
	}
	return err.Error()
}
