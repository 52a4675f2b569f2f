// Package auth owns the current-user state and the login, registration,
// logout and profile-update flows. The manager is constructed once at
// startup and handed to the HTTP layer explicitly; there is no ambient
// session global.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ric-center/planner/internal/backend"
	"github.com/ric-center/planner/internal/models"
	"github.com/ric-center/planner/internal/store"
)

var (
	// ErrInvalidCredentials is returned on a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// errNoReconciliation marks gateways that cannot verify a persisted
	// session against a remote source (local mode).
	errNoReconciliation = errors.New("session reconciliation not supported")
)

// Registration is the payload for creating a new account.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Role     string `json:"role,omitempty"`
}

// Gateway performs the mode-specific account operations.
type Gateway interface {
	Login(ctx context.Context, email, password string) (models.User, error)
	Register(ctx context.Context, reg Registration) error
	Logout(ctx context.Context) error
	FetchUser(ctx context.Context) (models.User, error)
	UpdateProfile(ctx context.Context, p models.Profile) error
	Refresh(ctx context.Context) bool
}

// Manager holds the process-wide current user, persisted across restarts
// in the store's currentUser record.
type Manager struct {
	gw Gateway
	st *store.Store

	mu   sync.RWMutex
	user *models.User
}

// NewManager creates an auth manager over a gateway; st persists the
// session record and may not be nil.
func NewManager(gw Gateway, st *store.Store) *Manager {
	return &Manager{gw: gw, st: st}
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (m *Manager) CurrentUser() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Hydrate restores the persisted session and reconciles it against the
// gateway. An unauthorized answer gets exactly one refresh attempt before
// the session is cleared.
func (m *Manager) Hydrate(ctx context.Context) {
	raw, ok, err := m.st.GetKV(ctx, store.CurrentUserKey)
	if err != nil || !ok {
		return
	}
	var saved models.User
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		m.st.DeleteKV(ctx, store.CurrentUserKey)
		return
	}
	m.setUser(&saved)

	fresh, err := m.gw.FetchUser(ctx)
	if errors.Is(err, errNoReconciliation) {
		return
	}
	if isUnauthorized(err) {
		if m.gw.Refresh(ctx) {
			fresh, err = m.gw.FetchUser(ctx)
		}
	}
	if err != nil {
		if isUnauthorized(err) {
			slog.Info("persisted session rejected upstream, clearing")
			m.clear(ctx)
		}
		return
	}
	m.persist(ctx, &fresh)
}

// Login signs the user in and returns the signed-in user, or nil on any
// failure: the page shows a generic message either way. Callers bind
// their session to the returned value; the manager's shared state is
// last-writer-wins and must not be re-read for that purpose.
func (m *Manager) Login(ctx context.Context, email, password string) *models.User {
	u, err := m.gw.Login(ctx, email, password)
	if err != nil {
		slog.Debug("login failed", "error", err)
		return nil
	}
	m.persist(ctx, &u)
	out := u
	return &out
}

// Register creates the account and then signs in with the same
// credentials; the result is the login outcome.
func (m *Manager) Register(ctx context.Context, reg Registration) *models.User {
	if err := m.gw.Register(ctx, reg); err != nil {
		slog.Debug("registration failed", "error", err)
		return nil
	}
	return m.Login(ctx, reg.Email, reg.Password)
}

// UpdateProfile writes the allow-listed profile fields and refreshes the
// current user from the gateway. If the re-fetch fails the local user is
// patched in place so the page does not regress to stale data.
func (m *Manager) UpdateProfile(ctx context.Context, p models.Profile) error {
	current := m.CurrentUser()
	if current == nil {
		return errors.New("not signed in")
	}

	p.UserID = current.ID
	if err := m.gw.UpdateProfile(ctx, p); err != nil {
		return err
	}

	fresh, err := m.gw.FetchUser(ctx)
	if err != nil {
		patched := *current
		m.persist(ctx, &patched)
		return nil
	}
	m.persist(ctx, &fresh)
	return nil
}

// Logout clears the session unconditionally; the gateway call is best
// effort.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.gw.Logout(ctx); err != nil {
		slog.Debug("upstream logout failed", "error", err)
	}
	m.clear(ctx)
}

func (m *Manager) persist(ctx context.Context, u *models.User) {
	u.Password = ""
	u.PasswordHash = ""
	m.setUser(u)
	raw, err := json.Marshal(u)
	if err != nil {
		return
	}
	if err := m.st.SetKV(ctx, store.CurrentUserKey, string(raw)); err != nil {
		slog.Warn("failed to persist session", "error", err)
	}
}

func (m *Manager) clear(ctx context.Context) {
	m.setUser(nil)
	if err := m.st.DeleteKV(ctx, store.CurrentUserKey); err != nil {
		slog.Warn("failed to clear persisted session", "error", err)
	}
}

func (m *Manager) setUser(u *models.User) {
	m.mu.Lock()
	m.user = u
	m.mu.Unlock()
}

func isUnauthorized(err error) bool {
	var apiErr *backend.APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
