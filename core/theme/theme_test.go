package theme_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesahal/ijaa-client/core/auth"
	"github.com/mesahal/ijaa-client/core/session"
	"github.com/mesahal/ijaa-client/core/sessionstore"
	"github.com/mesahal/ijaa-client/core/theme"
)

// stubSource replays auth states to its subscriber on demand.
type stubSource struct {
	mu      sync.Mutex
	current auth.State
	subs    []func(auth.State)
}

func (s *stubSource) Subscribe(fn func(auth.State)) func() {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	current := s.current
	s.mu.Unlock()
	fn(current)
	return func() {}
}

func (s *stubSource) emit(st auth.State) {
	s.mu.Lock()
	s.current = st
	subs := make([]func(auth.State), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
}

// stubFetcher returns a fixed remote preference.
type stubFetcher struct {
	mu    sync.Mutex
	pref  string
	err   error
	calls int
}

func (f *stubFetcher) ThemePreference(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.pref, f.err
}

func userState() auth.State {
	return auth.State{User: &session.UserRecord{Token: "t1", Email: "a@x.com", UserID: "1"}}
}

func TestManagerUnauthenticated(t *testing.T) {
	t.Parallel()

	t.Run("defaults to light", func(t *testing.T) {
		t.Parallel()

		store := sessionstore.NewMemoryHub().Context()
		m := theme.NewManager(&stubFetcher{}, store)
		m.Bind(&stubSource{})

		assert.Equal(t, theme.Light, m.Current())
	})

	t.Run("ignores a cached dark preference", func(t *testing.T) {
		t.Parallel()

		store := sessionstore.NewMemoryHub().Context()
		require.NoError(t, store.Set("ijaa.theme", string(theme.Dark)))

		m := theme.NewManager(&stubFetcher{}, store)
		m.Bind(&stubSource{})

		assert.Equal(t, theme.Light, m.Current())
	})

	t.Run("reverts to light in the same update as sign-out", func(t *testing.T) {
		t.Parallel()

		store := sessionstore.NewMemoryHub().Context()
		require.NoError(t, store.Set("ijaa.theme", string(theme.Dark)))

		src := &stubSource{current: userState()}
		m := theme.NewManager(&stubFetcher{pref: string(theme.Dark)}, store)
		m.Bind(src)
		require.Equal(t, theme.Dark, m.Current())

		src.emit(auth.State{})

		// Synchronous: the fallback applied before emit returned.
		assert.Equal(t, theme.Light, m.Current())
	})
}

func TestManagerAuthenticated(t *testing.T) {
	t.Parallel()

	t.Run("serves the cached preference while fetching", func(t *testing.T) {
		t.Parallel()

		store := sessionstore.NewMemoryHub().Context()
		require.NoError(t, store.Set("ijaa.theme", string(theme.Dark)))

		fetcher := &stubFetcher{err: errors.New("offline")}
		m := theme.NewManager(fetcher, store)
		m.Bind(&stubSource{current: userState()})

		assert.Equal(t, theme.Dark, m.Current())
	})

	t.Run("adopts and caches the remote preference", func(t *testing.T) {
		t.Parallel()

		store := sessionstore.NewMemoryHub().Context()
		fetcher := &stubFetcher{pref: string(theme.Dark)}
		m := theme.NewManager(fetcher, store)

		var mu sync.Mutex
		var seen []theme.Preference
		m.OnChange(func(p theme.Preference) {
			mu.Lock()
			seen = append(seen, p)
			mu.Unlock()
		})

		m.Bind(&stubSource{current: userState()})

		require.Eventually(t, func() bool {
			return m.Current() == theme.Dark
		}, 2*time.Second, 5*time.Millisecond)

		cached, err := store.Get("ijaa.theme")
		require.NoError(t, err)
		assert.Equal(t, string(theme.Dark), cached)

		mu.Lock()
		defer mu.Unlock()
		assert.Contains(t, seen, theme.Dark)
	})

	t.Run("ignores an unknown remote value", func(t *testing.T) {
		t.Parallel()

		store := sessionstore.NewMemoryHub().Context()
		fetcher := &stubFetcher{pref: "sepia"}
		m := theme.NewManager(fetcher, store)
		m.Bind(&stubSource{current: userState()})

		// Give the fetch goroutine time to run.
		time.Sleep(100 * time.Millisecond)

		assert.Equal(t, theme.Light, m.Current())
		_, err := store.Get("ijaa.theme")
		assert.ErrorIs(t, err, sessionstore.ErrNotFound)
	})
}
