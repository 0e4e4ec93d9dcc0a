package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event is a change of the auth session.
type Event string

const (
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
)

// Listener receives session changes. session is nil for EventSignedOut.
type Listener func(ctx context.Context, event Event, session *Session)

// refreshLeeway refreshes access tokens slightly before they expire.
const refreshLeeway = 30 * time.Second

// Manager owns the auth session of one browser session. Auth operations are
// serialized; listeners are called after the operation has finished and
// outside the manager's locks.
type Manager struct {
	provider Provider
	store    TokenStore
	key      string
	now      func() time.Time
	logger   zerolog.Logger

	opMu sync.Mutex

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerClock overrides the time source used for expiry checks.
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager persisting its session in store under key.
func NewManager(provider Provider, store TokenStore, key string, logger zerolog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		provider:  provider,
		store:     store,
		key:       key,
		now:       time.Now,
		logger:    logger.With().Str("component", "identity-manager").Logger(),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe registers fn for session changes and returns a function that
// removes it.
func (m *Manager) Subscribe(fn Listener) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

func (m *Manager) notify(ctx context.Context, event Event, s *Session) {
	m.mu.Lock()
	fns := make([]Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(ctx, event, s)
	}
}

// Session returns the stored session, refreshing it when the access token
// has expired. It returns nil when there is no usable session.
func (m *Manager) Session(ctx context.Context) (*Session, error) {
	m.opMu.Lock()
	s, err := m.store.Load(ctx, m.key)
	if err != nil {
		m.opMu.Unlock()
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	if s == nil || !s.Expired(m.now(), refreshLeeway) {
		m.opMu.Unlock()
		return s, nil
	}

	refreshed, err := m.provider.Refresh(ctx, s.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			m.logger.Info().Err(err).Msg("stored session rejected, signing out")
			if delErr := m.store.Delete(ctx, m.key); delErr != nil {
				m.logger.Warn().Err(delErr).Msg("failed to clear rejected session")
			}
			m.opMu.Unlock()
			m.notify(ctx, EventSignedOut, nil)
			return nil, nil
		}
		m.opMu.Unlock()
		return nil, err
	}

	if err := m.store.Save(ctx, m.key, refreshed); err != nil {
		m.opMu.Unlock()
		return nil, fmt.Errorf("failed to persist refreshed session: %w", err)
	}
	m.opMu.Unlock()

	m.notify(ctx, EventTokenRefreshed, refreshed)
	return refreshed, nil
}

// SignIn signs in with email and password.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*Session, error) {
	m.opMu.Lock()
	s, err := m.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		m.opMu.Unlock()
		return nil, err
	}
	if err := m.store.Save(ctx, m.key, s); err != nil {
		m.opMu.Unlock()
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	m.opMu.Unlock()

	m.notify(ctx, EventSignedIn, s)
	return s, nil
}

// SignUp creates an account. When the service returns a session it is
// stored and announced like a sign-in.
func (m *Manager) SignUp(ctx context.Context, email, password string) (*User, *Session, error) {
	m.opMu.Lock()
	user, s, err := m.provider.SignUp(ctx, email, password)
	if err != nil {
		m.opMu.Unlock()
		return nil, nil, err
	}
	if s == nil {
		m.opMu.Unlock()
		return user, nil, nil
	}
	if err := m.store.Save(ctx, m.key, s); err != nil {
		m.opMu.Unlock()
		return user, nil, fmt.Errorf("failed to persist session: %w", err)
	}
	m.opMu.Unlock()

	m.notify(ctx, EventSignedIn, s)
	return user, s, nil
}

// SignOut clears the local session and revokes it remotely. The remote
// revocation is best effort; its error is returned after the local state is
// already gone.
func (m *Manager) SignOut(ctx context.Context) error {
	m.opMu.Lock()
	s, loadErr := m.store.Load(ctx, m.key)
	delErr := m.store.Delete(ctx, m.key)
	m.opMu.Unlock()

	m.notify(ctx, EventSignedOut, nil)

	if delErr != nil {
		return fmt.Errorf("failed to clear session: %w", delErr)
	}
	if loadErr != nil || s == nil {
		return nil
	}
	if err := m.provider.SignOut(ctx, s.AccessToken); err != nil {
		m.logger.Warn().Err(err).Msg("remote sign-out failed")
		return err
	}
	return nil
}
