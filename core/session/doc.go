// Package session owns the persisted session-identity state of the
// client: which of the two mutually exclusive principal kinds (user or
// admin) is authenticated, validated on every read.
//
// # Records and the marker
//
// Each kind has one record slot (UserRecord, AdminRecord) and a
// separate session-type marker names the active kind. A record counts
// as present only when it parses as JSON and passes ValidUser or
// ValidAdmin; malformed, truncated or partially written bytes read as
// absent, never as "signed in". When the marker and the record it
// points at disagree, the effective session is none.
//
// # Mutual exclusion
//
// Activating one kind unconditionally removes the other kind's record,
// and ResolveConflict clears an active session of the other kind
// before a new sign-in is persisted. Records are only ever replaced
// whole, never field-patched, so observers need no merge logic.
//
// # Failure semantics
//
// The Manager is the only component that touches the store. Store
// failures are absorbed and logged; validation failures read as
// absent. Only persisting an invalid record returns an error, because
// that is a caller bug rather than an environment fault.
package session
