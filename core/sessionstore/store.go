package sessionstore

// Change describes a single key mutation observed from another
// execution context sharing the same store. A nil value pointer means
// the key was absent on that side of the transition.
type Change struct {
	Key      string
	NewValue *string
	OldValue *string
}

// Store is a durable, synchronous, string-keyed store shared by
// multiple execution contexts (processes, windows) of the same client.
//
// Implementations must never notify the local context about its own
// writes; only other contexts attached to the same backing state
// observe a Change. Implementations are expected to degrade rather
// than fail hard: callers treat any error as "absent" or "not
// persisted" and continue.
type Store interface {
	// Get returns the value for key, or ErrNotFound when absent.
	Get(key string) (string, error)

	// Set writes the value for key. The write is immediately visible
	// to local reads even when durable persistence fails.
	Set(key, value string) error

	// Remove deletes the key. Removing an absent key is not an error.
	Remove(key string) error

	// OnExternalChange registers fn for mutations made by other
	// execution contexts. The returned function unsubscribes.
	OnExternalChange(fn func(Change)) (unsubscribe func())
}

func strptr(s string) *string { return &s }
