// Package session holds the client's authentication state: the current
// token pair, the authenticated/unauthenticated flag, and the observer
// list that drives re-rendering when the flag flips.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/footballerweb/ligaclient/internal/store"
	"github.com/footballerweb/ligaclient/pkg/idx"
	"github.com/footballerweb/ligaclient/pkg/tokenx"
)

// Validator confirms a token with the remote API. Used once at session
// bootstrap; routine checks trust local expiry validation only.
type Validator interface {
	ValidateToken(ctx context.Context, token string) error
}

// Listener receives the new authenticated value after a state flip.
type Listener func(authenticated bool)

// Manager owns the Session: it is the only component that mutates the
// authenticated flag and the current token pair, and it mirrors every
// mutation to the token store within the same operation.
//
// All faults (storage, decode) are caught, logged, and resolved to the
// safe state. No operation ever leaves the manager authenticated with an
// empty access token.
type Manager struct {
	storage   store.TokenStorage
	validator Validator
	log       *slog.Logger
	now       func() time.Time

	mu            sync.Mutex
	authenticated bool
	accessToken   string
	refreshToken  string
	listeners     map[idx.ID]Listener
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithValidator enables remote confirmation during Initialize.
func WithValidator(v Validator) Option {
	return func(m *Manager) { m.validator = v }
}

// WithClock overrides the time source, for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New creates an unauthenticated Manager backed by storage.
func New(storage store.TokenStorage, opts ...Option) *Manager {
	m := &Manager{
		storage:   storage,
		log:       slog.Default(),
		now:       time.Now,
		listeners: make(map[idx.ID]Listener),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Subscribe registers a listener for authentication flips and returns a
// handle for Unsubscribe. Listeners run synchronously within the
// transition that caused them; fan-out order is unspecified.
func (m *Manager) Subscribe(fn Listener) idx.ID {
	m.mu.Lock()
	defer m.mu.Unlock()

	handle := idx.New()
	m.listeners[handle] = fn

	return handle
}

// Unsubscribe removes a previously registered listener.
func (m *Manager) Unsubscribe(handle idx.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.listeners, handle)
}

// IsAuthenticated reports the current boolean state.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.authenticated
}

// AccessToken returns the current access token, or empty string.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.accessToken
}

// RefreshToken returns the current refresh token, or empty string.
func (m *Manager) RefreshToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.refreshToken
}

// Initialize rehydrates state from the token store at startup. When a
// validator is configured the rehydrated token is additionally confirmed
// with the remote API and the session downgrades on failure. Initialize
// never fails; every internal fault resolves to unauthenticated.
func (m *Manager) Initialize(ctx context.Context) {
	if !m.CheckAuthentication(ctx) {
		return
	}

	if m.validator == nil {
		return
	}

	if err := m.validator.ValidateToken(ctx, m.AccessToken()); err != nil {
		m.log.Warn("remote token validation failed, clearing session", "error", err)
		m.SetUnauthenticated(ctx)
	}
}

// CheckAuthentication reads the persisted token record and adopts it when
// the access token is well-formed and unexpired. An absent, malformed, or
// expired token clears storage and resolves to unauthenticated.
func (m *Manager) CheckAuthentication(ctx context.Context) bool {
	access, err := m.storage.Get(ctx, store.AccessTokenKey)
	if err != nil {
		m.log.Error("reading access token from storage", "error", err)
		access = ""
	}

	if access == "" {
		m.SetUnauthenticated(ctx)
		return false
	}

	if !tokenx.IsValid(access, m.now()) {
		m.log.Warn("stored token is invalid or expired, clearing session")
		m.SetUnauthenticated(ctx)
		return false
	}

	refresh, err := m.storage.Get(ctx, store.RefreshTokenKey)
	if err != nil {
		m.log.Error("reading refresh token from storage", "error", err)
		refresh = ""
	}

	m.transition(true, access, refresh)

	return true
}

// SetAuthenticated persists token and transitions to authenticated. An
// empty, malformed, or expired token is a warned no-op: state is left
// unchanged and nothing is written to storage.
func (m *Manager) SetAuthenticated(ctx context.Context, token string) {
	if token == "" {
		m.log.Warn("attempted to authenticate with empty token")
		return
	}

	if !tokenx.IsValid(token, m.now()) {
		m.log.Warn("attempted to authenticate with invalid token")
		return
	}

	if err := m.storage.Set(ctx, store.AccessTokenKey, token); err != nil {
		m.log.Error("persisting access token", "error", err)
	}

	m.transition(true, token, m.RefreshToken())
}

// SetTokens adopts a freshly issued token pair, persisting whichever
// halves are present. Used by the transport when the API rotates tokens
// opportunistically and by the refresh path. An invalid access token is
// ignored with a warning; a bare refresh token is persisted without
// changing the authenticated flag.
func (m *Manager) SetTokens(ctx context.Context, access, refresh string) {
	if refresh != "" {
		if err := m.storage.Set(ctx, store.RefreshTokenKey, refresh); err != nil {
			m.log.Error("persisting refresh token", "error", err)
		}

		m.mu.Lock()
		m.refreshToken = refresh
		m.mu.Unlock()
	}

	if access == "" {
		return
	}

	m.SetAuthenticated(ctx, access)
}

// SetUnauthenticated clears the token store, drops the current pair, and
// transitions to unauthenticated.
func (m *Manager) SetUnauthenticated(ctx context.Context) {
	if err := m.storage.Remove(ctx, store.AccessTokenKey); err != nil {
		m.log.Error("removing access token from storage", "error", err)
	}

	if err := m.storage.Remove(ctx, store.RefreshTokenKey); err != nil {
		m.log.Error("removing refresh token from storage", "error", err)
	}

	m.transition(false, "", "")
}

// UserEmail returns the email claim of the current token, or empty string.
func (m *Manager) UserEmail() string {
	return m.currentClaim(tokenx.ClaimEmail)
}

// UserName returns the display-name claim of the current token.
func (m *Manager) UserName() string {
	return m.currentClaim(tokenx.ClaimName)
}

// UserPicture returns the profile picture URL claim of the current token.
func (m *Manager) UserPicture() string {
	token := m.AccessToken()
	if token == "" {
		return ""
	}

	return tokenx.AllClaims(token)[tokenx.FriendlyPicture]
}

func (m *Manager) currentClaim(canonical string) string {
	token := m.AccessToken()
	if token == "" {
		return ""
	}

	v, _ := tokenx.Claim(token, canonical)

	return v
}

// transition updates the in-memory session and fires listeners when the
// boolean value actually flips. Listeners observe the already-updated
// state; they are invoked outside the lock so they may call back into the
// manager.
func (m *Manager) transition(authenticated bool, access, refresh string) {
	m.mu.Lock()

	flipped := m.authenticated != authenticated
	m.authenticated = authenticated
	m.accessToken = access
	m.refreshToken = refresh

	var snapshot []Listener
	if flipped {
		snapshot = make([]Listener, 0, len(m.listeners))
		for _, fn := range m.listeners {
			snapshot = append(snapshot, fn)
		}
	}

	m.mu.Unlock()

	for _, fn := range snapshot {
		fn(authenticated)
	}
}
