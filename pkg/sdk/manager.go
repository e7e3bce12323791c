package sdk

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// logoutTimeout bounds the best-effort server-side logout call.
const logoutTimeout = 5 * time.Second

// LoginCredentials are the user-supplied login fields.
type LoginCredentials struct {
	Username string
	Password string
}

// Manager owns the client-side session: it logs in and out, answers role
// checks, and heals expired access tokens for the Client it is bound to.
//
// Create one per application scope, call Restore at start-up and Close at
// teardown.
type Manager struct {
	client   *Client
	sessions *SessionAPI
	store    *CredentialStore
	lister   RoleLister
	resolver *RoleResolver
	logger   *slog.Logger

	loginMu sync.Mutex

	mu         sync.RWMutex
	record     SessionRecord
	rememberMe bool

	background sync.WaitGroup
}

var (
	_ TokenRefresher     = (*Manager)(nil)
	_ oauth2.TokenSource = (*Manager)(nil)
)

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the manager's logger.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithRoleLister overrides where role catalogues are fetched from during login.
func WithRoleLister(lister RoleLister) ManagerOption {
	return func(m *Manager) {
		m.lister = lister
	}
}

// NewManager creates an anonymous manager. Roles are listed through client
// unless WithRoleLister is given.
func NewManager(client *Client, store *CredentialStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		client:   client,
		sessions: NewSessionAPI(client),
		store:    store,
		logger:   slog.New(slog.DiscardHandler),
		record:   AnonymousRecord(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.lister == nil {
		m.lister = NewRolesAPI(client)
	}
	m.resolver = NewRoleResolver(m.lister, m.logger)
	return m
}

// Restore loads the persisted session and binds the client to it.
func (m *Manager) Restore(ctx context.Context) SessionRecord {
	record := m.store.Load(ctx)
	remember := m.store.RememberMe(ctx)

	m.mu.Lock()
	m.record = record
	m.rememberMe = remember
	m.mu.Unlock()

	m.bind()
	if record.IsAuthenticated() {
		m.logger.Debug("restored session", "username", record.User.Username, "remember_me", remember)
	}
	return record
}

// Login authenticates against the backend, resolves the user's role and
// persists the session. The authenticated state is published only after all
// of that has completed.
func (m *Manager) Login(ctx context.Context, creds LoginCredentials, rememberMe bool) (*User, error) {
	m.loginMu.Lock()
	defer m.loginMu.Unlock()

	deviceID, err := m.store.DeviceID(ctx)
	if err != nil {
		m.logger.Warn("logging in without a device id", "error", err)
	}

	env, err := m.sessions.Login(ctx, LoginRequest{
		Username:   strings.TrimSpace(creds.Username),
		Password:   creds.Password,
		DeviceUUID: deviceID,
	})
	if err != nil {
		return nil, err
	}
	if env.AccessToken == "" {
		return nil, fmt.Errorf("%w: response carried no access token", ErrLoginFailed)
	}
	if env.User == nil {
		return nil, fmt.Errorf("%w: response carried no user", ErrLoginFailed)
	}

	roleName := m.resolver.Resolve(ctx, env.AccessToken, env.User.RoleRef())

	record := SessionRecord{
		User:         newUser(env.User, roleName),
		AccessToken:  env.AccessToken,
		RefreshToken: env.RefreshToken,
		Status:       StatusAuthenticated,
		ExpiresAt:    tokenExpiry(env.AccessToken),
	}
	if err := m.store.Save(ctx, record, rememberMe); err != nil {
		m.logger.Warn("session not persisted", "error", err)
	}

	m.mu.Lock()
	m.record = record
	m.rememberMe = rememberMe
	m.mu.Unlock()
	m.bind()

	m.logger.Info("logged in", "username", record.User.Username, "role", roleName)
	user := *record.User
	return &user, nil
}

// Logout ends the session locally and asks the server to end it too. The
// local transition always happens; the server call runs in the background and
// its failure is ignored.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	token := m.record.AccessToken
	m.record = AnonymousRecord()
	m.rememberMe = false
	m.mu.Unlock()

	m.bind()
	if err := m.store.Save(ctx, AnonymousRecord(), false); err != nil {
		m.logger.Warn("failed to clear stored session", "error", err)
	}

	if token == "" {
		return
	}

	m.background.Add(1)
	go func() {
		defer m.background.Done()
		logoutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logoutTimeout)
		defer cancel()
		if err := m.sessions.Logout(logoutCtx, token); err != nil {
			m.logger.Debug("server logout failed", "error", err)
		}
	}()
}

// Close waits for background server calls started by Logout, or until ctx ends.
func (m *Manager) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.background.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HasRole reports whether the session is authenticated with one of roles.
// Comparison is exact; role names are lower-cased once, at login.
func (m *Manager) HasRole(roles ...string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.record.IsAuthenticated() {
		return false
	}
	return slices.Contains(roles, m.record.User.RoleName)
}

// Refresh exchanges the refresh token for a new access token and updates the
// session in place. It returns an empty token when there is nothing to refresh.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	m.mu.RLock()
	refreshToken := m.record.RefreshToken
	authenticated := m.record.IsAuthenticated()
	m.mu.RUnlock()

	if !authenticated || refreshToken == "" {
		return "", nil
	}

	env, err := m.sessions.Refresh(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh access token: %w", err)
	}
	if env.AccessToken == "" {
		return "", nil
	}

	m.mu.Lock()
	if !m.record.IsAuthenticated() {
		m.mu.Unlock()
		return "", nil
	}
	if m.record.RefreshToken != refreshToken {
		// A new login replaced the session while the refresh was in flight.
		current := m.record.AccessToken
		m.mu.Unlock()
		return current, nil
	}
	m.record.AccessToken = env.AccessToken
	if env.RefreshToken != "" {
		m.record.RefreshToken = env.RefreshToken
	}
	m.record.ExpiresAt = tokenExpiry(env.AccessToken)
	record := m.record
	remember := m.rememberMe
	m.mu.Unlock()

	m.bind()
	if err := m.store.Save(ctx, record, remember); err != nil {
		m.logger.Warn("refreshed session not persisted", "error", err)
	}

	m.logger.Debug("access token refreshed", "username", record.User.Username)
	return record.AccessToken, nil
}

// OnSessionExpired forces a logout after a failed refresh.
func (m *Manager) OnSessionExpired(ctx context.Context) {
	m.logger.Info("session expired; logging out")
	m.Logout(ctx)
}

// Token returns the current access token, or ErrNotAuthenticated while anonymous.
func (m *Manager) Token() (*oauth2.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.record.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	return m.record.OAuth2Token(), nil
}

// Session returns a copy of the current record.
func (m *Manager) Session() SessionRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record := m.record
	if record.User != nil {
		user := *record.User
		record.User = &user
	}
	return record
}

// User returns the signed-in user, or nil while anonymous.
func (m *Manager) User() *User {
	record := m.Session()
	if !record.IsAuthenticated() {
		return nil
	}
	return record.User
}

// Status returns the current authentication status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.record.IsAuthenticated() {
		return StatusAuthenticated
	}
	return StatusAnonymous
}

// RememberMe reports which tier the current session is persisted in.
func (m *Manager) RememberMe() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rememberMe
}

// VerifySession asks the server about the current session. Expired access
// tokens are refreshed on the way.
func (m *Manager) VerifySession(ctx context.Context) (*SessionEnvelope, error) {
	token, err := m.Token()
	if err != nil {
		return nil, err
	}
	return m.sessions.GetSession(ctx, token.AccessToken)
}

// SignUp registers a new account. It does not start a session; call Login
// with the same credentials afterwards.
func (m *Manager) SignUp(ctx context.Context, req CreateUserRequest) (*APIUser, error) {
	if err := ValidateSignUp(&req); err != nil {
		return nil, err
	}
	if req.DeviceUUID == "" {
		deviceID, err := m.store.DeviceID(ctx)
		if err != nil {
			m.logger.Warn("device id unavailable", "error", err)
		}
		req.DeviceUUID = deviceID
	}

	env, err := NewUsersAPI(m.client).Create(ctx, req)
	if err != nil {
		return nil, err
	}
	if env == nil || env.User == nil {
		return nil, fmt.Errorf("%w: sign-up response has no user", ErrLoginFailed)
	}
	return env.User, nil
}

// ChangePassword sets a new password for the signed-in user.
func (m *Manager) ChangePassword(ctx context.Context, newPassword string) error {
	token, err := m.Token()
	if err != nil {
		return err
	}
	env, err := m.sessions.ChangePassword(ctx, ChangePasswordRequest{NewPassword: newPassword}, token.AccessToken)
	if err != nil {
		return err
	}
	if env.Error != "" {
		return fmt.Errorf("change password: %s", env.Error)
	}
	return nil
}

// bind registers the manager as the client's refresher while authenticated
// and clears the binding while anonymous.
func (m *Manager) bind() {
	if m.Status() == StatusAuthenticated {
		m.client.SetRefresher(m)
		return
	}
	m.client.SetRefresher(nil)
}
