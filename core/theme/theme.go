package theme

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/mesahal/ijaa-client/core/auth"
	"github.com/mesahal/ijaa-client/core/sessionstore"
	"github.com/mesahal/ijaa-client/pkg/logger"
)

// Preference is a display theme choice.
type Preference string

const (
	Light Preference = "light"
	Dark  Preference = "dark"
)

// cacheKey is the device-local slot holding the last known preference.
const cacheKey = "ijaa.theme"

// Fetcher retrieves the remote preference of the signed-in principal.
// Implemented by the authapi client.
type Fetcher interface {
	ThemePreference(ctx context.Context, token string) (string, error)
}

// AuthSource is the slice of the coordinator the theme module depends
// on: a subscribable stream of auth states.
type AuthSource interface {
	Subscribe(fn func(auth.State)) func()
}

// Manager resolves the effective theme from the authentication state:
// an unauthenticated client always renders the light default, whatever
// the device cache says; an authenticated one trusts the remote
// preference, falling back to the cache and then light while the fetch
// is pending or failing.
type Manager struct {
	fetcher Fetcher
	store   sessionstore.Store
	log     *slog.Logger

	mu      sync.RWMutex
	current Preference
	gen     uint64
	subs    []func(Preference)
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager creates a theme manager. Call Bind to attach it to the
// auth coordinator.
func NewManager(fetcher Fetcher, store sessionstore.Store, opts ...Option) *Manager {
	m := &Manager{
		fetcher: fetcher,
		store:   store,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		current: Light,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Bind subscribes to the auth source. The light fallback for an
// unauthenticated state is applied inside the subscription callback,
// so it lands in the same update cycle as the auth change itself. The
// returned function detaches.
func (m *Manager) Bind(src AuthSource) func() {
	return src.Subscribe(func(st auth.State) {
		m.onAuthState(st)
	})
}

// Current returns the effective preference.
func (m *Manager) Current() Preference {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// OnChange registers an observer for preference changes.
func (m *Manager) OnChange(fn func(Preference)) {
	m.mu.Lock()
	m.subs = append(m.subs, fn)
	m.mu.Unlock()
}

func (m *Manager) onAuthState(st auth.State) {
	if st.Loading {
		return
	}

	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	token := activeToken(st)
	if token == "" {
		// Unauthenticated: fixed light default, the cache is not
		// consulted.
		m.set(Light)
		return
	}

	m.set(m.cached())

	go func() {
		raw, err := m.fetcher.ThemePreference(context.Background(), token)
		if err != nil {
			m.log.Debug("theme preference fetch failed", logger.Error(err))
			return
		}
		pref, ok := parsePreference(raw)
		if !ok {
			m.log.Debug("ignoring unknown theme preference", slog.String("value", raw))
			return
		}
		// A newer auth state wins over this fetch's result.
		if !m.setIfCurrent(gen, pref) {
			return
		}
		if err := m.store.Set(cacheKey, string(pref)); err != nil {
			m.log.Debug("theme cache write failed", logger.Error(err))
		}
	}()
}

// cached returns the device-cached preference, defaulting to light.
func (m *Manager) cached() Preference {
	raw, err := m.store.Get(cacheKey)
	if err != nil {
		return Light
	}
	if pref, ok := parsePreference(raw); ok {
		return pref
	}
	return Light
}

// setIfCurrent applies pref only when no newer auth state has arrived
// since gen was taken.
func (m *Manager) setIfCurrent(gen uint64, pref Preference) bool {
	m.mu.RLock()
	stale := m.gen != gen
	m.mu.RUnlock()
	if stale {
		return false
	}
	m.set(pref)
	return true
}

func (m *Manager) set(pref Preference) {
	m.mu.Lock()
	changed := m.current != pref
	m.current = pref
	fns := make([]func(Preference), len(m.subs))
	copy(fns, m.subs)
	m.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range fns {
		fn(pref)
	}
}

func activeToken(st auth.State) string {
	switch {
	case st.User != nil:
		return st.User.Token
	case st.Admin != nil:
		return st.Admin.Token
	}
	return ""
}

func parsePreference(raw string) (Preference, bool) {
	switch Preference(raw) {
	case Light, Dark:
		return Preference(raw), true
	}
	return "", false
}
