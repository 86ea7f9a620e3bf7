package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesahal/ijaa-client/core/session"
	"github.com/mesahal/ijaa-client/core/sessionstore"
)

func testUser() session.UserRecord {
	return session.UserRecord{Token: "t1", Email: "a@x.com", UserID: "1"}
}

func testAdmin() session.AdminRecord {
	return session.AdminRecord{
		Token:   "t2",
		Email:   "admin@x.com",
		AdminID: "9",
		Name:    "Root",
		Role:    session.RoleAdmin,
		Active:  true,
	}
}

func newManager(t *testing.T) (*session.Manager, *sessionstore.MemoryStore, *sessionstore.MemoryHub) {
	t.Helper()
	hub := sessionstore.NewMemoryHub()
	store := hub.Context()
	return session.NewManager(store), store, hub
}

func TestManagerSetUser(t *testing.T) {
	t.Parallel()

	t.Run("round trips the record", func(t *testing.T) {
		t.Parallel()

		m, _, _ := newManager(t)
		require.NoError(t, m.SetUser(testUser()))

		got, ok := m.User()
		require.True(t, ok)
		assert.Equal(t, testUser(), *got)

		snap := m.Current()
		assert.Equal(t, session.TypeUser, snap.Type)
		assert.Equal(t, testUser(), *snap.User)
		assert.Nil(t, snap.Admin)
	})

	t.Run("rejects incomplete record without touching the store", func(t *testing.T) {
		t.Parallel()

		m, _, hub := newManager(t)
		err := m.SetUser(session.UserRecord{Email: "a@x.com", UserID: "1"})
		require.ErrorIs(t, err, session.ErrInvalidUserRecord)
		assert.Empty(t, hub.Snapshot())
	})

	t.Run("removes a persisted admin record", func(t *testing.T) {
		t.Parallel()

		m, _, _ := newManager(t)
		require.NoError(t, m.SetAdmin(testAdmin()))
		require.NoError(t, m.SetUser(testUser()))

		_, ok := m.Admin()
		assert.False(t, ok)
		assert.Equal(t, session.TypeUser, m.Current().Type)
	})
}

func TestManagerSetAdmin(t *testing.T) {
	t.Parallel()

	t.Run("round trips the record", func(t *testing.T) {
		t.Parallel()

		m, _, _ := newManager(t)
		require.NoError(t, m.SetAdmin(testAdmin()))

		got, ok := m.Admin()
		require.True(t, ok)
		assert.Equal(t, testAdmin(), *got)
		assert.Equal(t, session.TypeAdmin, m.Current().Type)
	})

	t.Run("rejects non-admin role", func(t *testing.T) {
		t.Parallel()

		m, _, _ := newManager(t)
		r := testAdmin()
		r.Role = "USER"
		require.ErrorIs(t, m.SetAdmin(r), session.ErrInvalidAdminRecord)
		assert.Equal(t, session.TypeNone, m.Current().Type)
	})

	t.Run("removes a persisted user record", func(t *testing.T) {
		t.Parallel()

		m, _, _ := newManager(t)
		require.NoError(t, m.SetUser(testUser()))
		require.NoError(t, m.SetAdmin(testAdmin()))

		_, ok := m.User()
		assert.False(t, ok)

		snap := m.Current()
		assert.Equal(t, session.TypeAdmin, snap.Type)
		assert.Nil(t, snap.User)
	})
}

func TestManagerClear(t *testing.T) {
	t.Parallel()

	t.Run("clearing user twice is idempotent", func(t *testing.T) {
		t.Parallel()

		m, _, _ := newManager(t)
		require.NoError(t, m.SetUser(testUser()))

		m.ClearUser()
		first := m.Current()
		m.ClearUser()

		assert.Equal(t, first, m.Current())
		assert.Equal(t, session.TypeNone, m.Current().Type)
	})

	t.Run("clearing the inactive kind keeps the active session", func(t *testing.T) {
		t.Parallel()

		m, _, _ := newManager(t)
		require.NoError(t, m.SetAdmin(testAdmin()))

		m.ClearUser()

		snap := m.Current()
		assert.Equal(t, session.TypeAdmin, snap.Type)
		require.NotNil(t, snap.Admin)
	})

	t.Run("clear all removes everything", func(t *testing.T) {
		t.Parallel()

		m, _, hub := newManager(t)
		require.NoError(t, m.SetUser(testUser()))

		m.ClearAll()

		assert.Equal(t, session.TypeNone, m.Current().Type)
		assert.Empty(t, hub.Snapshot())
	})
}

func TestManagerCurrent(t *testing.T) {
	t.Parallel()

	t.Run("marker without record is none", func(t *testing.T) {
		t.Parallel()

		m, store, _ := newManager(t)
		require.NoError(t, store.Set(session.KeySessionType, string(session.TypeUser)))

		snap := m.Current()
		assert.Equal(t, session.TypeNone, snap.Type)
		assert.Nil(t, snap.User)
		assert.Nil(t, snap.Admin)
	})

	t.Run("malformed record bytes read as none", func(t *testing.T) {
		t.Parallel()

		m, store, _ := newManager(t)
		require.NoError(t, store.Set(session.KeySessionType, string(session.TypeUser)))
		require.NoError(t, store.Set(session.KeyUser, "invalid-json"))

		assert.Equal(t, session.None(), m.Current())
	})

	t.Run("record without marker is none", func(t *testing.T) {
		t.Parallel()

		m, store, _ := newManager(t)
		require.NoError(t, m.SetUser(testUser()))
		require.NoError(t, store.Remove(session.KeySessionType))

		assert.Equal(t, session.TypeNone, m.Current().Type)
	})

	t.Run("unknown marker value is none", func(t *testing.T) {
		t.Parallel()

		m, store, _ := newManager(t)
		require.NoError(t, store.Set(session.KeySessionType, "superuser"))

		assert.Equal(t, session.TypeNone, m.Current().Type)
	})
}

func TestManagerResolveConflict(t *testing.T) {
	t.Parallel()

	t.Run("incoming user clears active admin", func(t *testing.T) {
		t.Parallel()

		m, _, _ := newManager(t)
		require.NoError(t, m.SetAdmin(testAdmin()))

		m.ResolveConflict(session.TypeUser)

		assert.Equal(t, session.TypeNone, m.Current().Type)
		_, ok := m.Admin()
		assert.False(t, ok)
	})

	t.Run("incoming admin clears active user", func(t *testing.T) {
		t.Parallel()

		m, _, _ := newManager(t)
		require.NoError(t, m.SetUser(testUser()))

		m.ResolveConflict(session.TypeAdmin)

		_, ok := m.User()
		assert.False(t, ok)
	})

	t.Run("same kind is untouched", func(t *testing.T) {
		t.Parallel()

		m, _, _ := newManager(t)
		require.NoError(t, m.SetUser(testUser()))

		m.ResolveConflict(session.TypeUser)

		assert.Equal(t, session.TypeUser, m.Current().Type)
	})

	t.Run("no active session is a no-op", func(t *testing.T) {
		t.Parallel()

		m, _, _ := newManager(t)
		m.ResolveConflict(session.TypeAdmin)
		assert.Equal(t, session.TypeNone, m.Current().Type)
	})
}

func TestManagerOnChange(t *testing.T) {
	t.Parallel()

	t.Run("remote transition yields consistent snapshots", func(t *testing.T) {
		t.Parallel()

		hub := sessionstore.NewMemoryHub()
		local := session.NewManager(hub.Context())
		remote := session.NewManager(hub.Context())

		require.NoError(t, local.SetUser(testUser()))

		var snaps []session.Snapshot
		unsubscribe := local.OnChange(func(snap session.Snapshot) {
			snaps = append(snaps, snap)
		})
		defer unsubscribe()

		require.NoError(t, remote.SetAdmin(testAdmin()))

		require.NotEmpty(t, snaps)
		for _, snap := range snaps {
			assert.False(t, snap.User != nil && snap.Admin != nil,
				"no snapshot may carry both records")
		}
		final := snaps[len(snaps)-1]
		assert.Equal(t, session.TypeAdmin, final.Type)
		require.NotNil(t, final.Admin)
		assert.Equal(t, testAdmin(), *final.Admin)
	})

	t.Run("local writes do not fire the callback", func(t *testing.T) {
		t.Parallel()

		m, _, _ := newManager(t)
		calls := 0
		unsubscribe := m.OnChange(func(session.Snapshot) { calls++ })
		defer unsubscribe()

		require.NoError(t, m.SetUser(testUser()))
		m.ClearAll()

		assert.Zero(t, calls)
	})

	t.Run("irrelevant keys are filtered", func(t *testing.T) {
		t.Parallel()

		hub := sessionstore.NewMemoryHub()
		local := session.NewManager(hub.Context())
		other := hub.Context()

		calls := 0
		unsubscribe := local.OnChange(func(session.Snapshot) { calls++ })
		defer unsubscribe()

		require.NoError(t, other.Set("ijaa.theme", "dark"))

		assert.Zero(t, calls)
	})
}

func TestManagerCleanupLegacyKeys(t *testing.T) {
	t.Parallel()

	hub := sessionstore.NewMemoryHub()
	store := hub.Context()
	m := session.NewManager(store)

	require.NoError(t, store.Set("ijaa.token", "old-token"))
	require.NoError(t, store.Set("ijaa.user", "{}"))
	require.NoError(t, m.SetUser(testUser()))

	m.CleanupLegacyKeys()

	_, err := store.Get("ijaa.token")
	assert.ErrorIs(t, err, sessionstore.ErrNotFound)
	_, err = store.Get("ijaa.user")
	assert.ErrorIs(t, err, sessionstore.ErrNotFound)

	// Current scheme keys survive the sweep.
	assert.Equal(t, session.TypeUser, m.Current().Type)
}
