package session

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/mesahal/ijaa-client/core/sessionstore"
	"github.com/mesahal/ijaa-client/pkg/logger"
)

// Persisted key layout. One record slot per principal kind plus the
// session-type marker.
const (
	KeyUser        = "ijaa.auth.user"
	KeyAdmin       = "ijaa.auth.admin"
	KeySessionType = "ijaa.auth.session_type"
)

// legacyKeys are slots from the prior flat storage scheme, removed
// best-effort on startup.
var legacyKeys = []string{"ijaa.user", "ijaa.admin", "ijaa.token", "ijaa.session"}

// Manager owns every read and write of the persisted session records
// and enforces the mutual-exclusion invariant between the two
// principal kinds. All operations are synchronous; store failures are
// absorbed and logged so callers never crash on a broken backing
// store.
type Manager struct {
	store sessionstore.Store
	log   *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for absorbed store failures.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager creates a session manager on top of the given store.
func NewManager(store sessionstore.Store, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetUser validates and persists a user record, marks the user kind
// active and unconditionally removes the admin record so stale data
// can never resurface. Returns ErrInvalidUserRecord without touching
// the store when the record is incomplete.
func (m *Manager) SetUser(r UserRecord) error {
	if !ValidUser(&r) {
		return ErrInvalidUserRecord
	}

	raw, err := json.Marshal(r)
	if err != nil {
		return errors.Join(ErrInvalidUserRecord, err)
	}

	m.write(KeyUser, string(raw))
	m.write(KeySessionType, string(TypeUser))
	m.remove(KeyAdmin)
	return nil
}

// SetAdmin is the admin counterpart of SetUser. The record must carry
// the exact RoleAdmin role to be accepted.
func (m *Manager) SetAdmin(r AdminRecord) error {
	if !ValidAdmin(&r) {
		return ErrInvalidAdminRecord
	}

	raw, err := json.Marshal(r)
	if err != nil {
		return errors.Join(ErrInvalidAdminRecord, err)
	}

	m.write(KeyAdmin, string(raw))
	m.write(KeySessionType, string(TypeAdmin))
	m.remove(KeyUser)
	return nil
}

// ClearUser removes the user record. The session-type marker is
// cleared only when it points at the user kind, so clearing an
// inactive kind never erases an active session of the other kind.
// Idempotent.
func (m *Manager) ClearUser() {
	m.remove(KeyUser)
	if m.markerType() == TypeUser {
		m.remove(KeySessionType)
	}
}

// ClearAdmin is the admin counterpart of ClearUser. Idempotent.
func (m *Manager) ClearAdmin() {
	m.remove(KeyAdmin)
	if m.markerType() == TypeAdmin {
		m.remove(KeySessionType)
	}
}

// ClearAll removes both records and the marker.
func (m *Manager) ClearAll() {
	m.remove(KeyUser)
	m.remove(KeyAdmin)
	m.remove(KeySessionType)
}

// Current reads the session-type marker and re-validates the record it
// points at. When the marker and the record disagree, or the record
// fails validation, the effective session is none; a half-valid record
// is never returned.
func (m *Manager) Current() Snapshot {
	switch m.markerType() {
	case TypeUser:
		if r, ok := m.User(); ok {
			return Snapshot{Type: TypeUser, User: r}
		}
	case TypeAdmin:
		if r, ok := m.Admin(); ok {
			return Snapshot{Type: TypeAdmin, Admin: r}
		}
	}
	return None()
}

// User reads and validates the persisted user record.
func (m *Manager) User() (*UserRecord, bool) {
	raw, err := m.store.Get(KeyUser)
	if err != nil {
		return nil, false
	}
	return decodeUser(raw)
}

// Admin reads and validates the persisted admin record.
func (m *Manager) Admin() (*AdminRecord, bool) {
	raw, err := m.store.Get(KeyAdmin)
	if err != nil {
		return nil, false
	}
	return decodeAdmin(raw)
}

// ResolveConflict clears the other kind's session when it is currently
// active, guaranteeing mutual exclusion before a new sign-in of the
// incoming kind is persisted. Resolution is total: it cannot fail
// short of a store failure, which is absorbed like any other.
func (m *Manager) ResolveConflict(incoming Type) {
	current := m.Current().Type
	switch {
	case incoming == TypeUser && current == TypeAdmin:
		m.log.Debug("resolving session conflict", logger.SessionType(string(current)))
		m.ClearAdmin()
	case incoming == TypeAdmin && current == TypeUser:
		m.log.Debug("resolving session conflict", logger.SessionType(string(current)))
		m.ClearUser()
	}
}

// OnChange subscribes to external store changes, filtered to the three
// session keys. The callback receives a freshly computed Snapshot so a
// multi-key remote transition always collapses into consistent views.
// The returned function unsubscribes.
func (m *Manager) OnChange(fn func(Snapshot)) func() {
	return m.store.OnExternalChange(func(ch sessionstore.Change) {
		switch ch.Key {
		case KeyUser, KeyAdmin, KeySessionType:
			fn(m.Current())
		}
	})
}

// CleanupLegacyKeys removes slots left behind by the prior storage
// scheme. Best-effort hygiene, never fails loudly.
func (m *Manager) CleanupLegacyKeys() {
	for _, key := range legacyKeys {
		m.remove(key)
	}
}

func (m *Manager) markerType() Type {
	raw, err := m.store.Get(KeySessionType)
	if err != nil {
		return TypeNone
	}
	switch Type(raw) {
	case TypeUser, TypeAdmin:
		return Type(raw)
	}
	return TypeNone
}

func (m *Manager) write(key, value string) {
	if err := m.store.Set(key, value); err != nil {
		m.log.Warn("session write not persisted", logger.Key(key), logger.Error(err))
	}
}

func (m *Manager) remove(key string) {
	if err := m.store.Remove(key); err != nil {
		m.log.Warn("session remove not persisted", logger.Key(key), logger.Error(err))
	}
}
