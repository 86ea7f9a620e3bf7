// Package sessionstore provides the durable string key-value store
// shared by every execution context of the client, with change
// notifications for writes made from other contexts.
//
// The Store interface abstracts the backing medium so the session layer
// never touches process-global state directly. Three implementations
// exist: an in-memory hub for tests and single-process use
// (MemoryHub), a JSON file watched across OS processes (FileStore),
// and a Redis-backed store in integration/database/redis for clients
// sharing state over the network.
//
// # Cross-context contract
//
// A write made through one context is visible to local reads
// immediately and is delivered to subscribers of every other context
// as a Change{Key, NewValue, OldValue}. The writing context itself is
// never notified, which prevents feedback loops when a subscriber
// reacts to a change by writing.
//
//	hub := sessionstore.NewMemoryHub()
//	a, b := hub.Context(), hub.Context()
//
//	unsubscribe := b.OnExternalChange(func(ch sessionstore.Change) {
//		// observes writes made through a, never through b
//	})
//	defer unsubscribe()
//
//	a.Set("ijaa.auth.session_type", "user")
//
// # Degradation
//
// Implementations absorb backing-medium failures: a failed persist
// returns ErrUnavailable but keeps the in-memory image consistent, a
// malformed document reads as empty. Callers treat every error as
// "absent" or "not persisted" and continue; a broken disk must never
// take the client down.
package sessionstore
