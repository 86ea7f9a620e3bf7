package sessionstore

import (
	"maps"
	"sync"
)

// MemoryHub holds one shared in-memory key space that any number of
// attached contexts read and write. A write made through one context is
// delivered as a Change to subscribers of every other context, which
// mirrors how independent windows of the same client observe a shared
// durable store.
//
// The zero value is not usable; create hubs with NewMemoryHub.
type MemoryHub struct {
	mu   sync.RWMutex
	data map[string]string
	ctxs []*MemoryStore
}

// NewMemoryHub creates an empty shared key space.
func NewMemoryHub() *MemoryHub {
	return &MemoryHub{data: make(map[string]string)}
}

// Context attaches a new execution context to the hub. Each context
// has its own subscriber set and never observes its own writes.
func (h *MemoryHub) Context() *MemoryStore {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := &MemoryStore{hub: h, subs: make(map[int64]func(Change))}
	h.ctxs = append(h.ctxs, s)
	return s
}

// Snapshot returns a copy of the current key space. Intended for tests.
func (h *MemoryHub) Snapshot() map[string]string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return maps.Clone(h.data)
}

func (h *MemoryHub) set(origin *MemoryStore, key, value string) {
	h.mu.Lock()
	old, had := h.data[key]
	h.data[key] = value
	targets := h.notifyTargets(origin)
	h.mu.Unlock()

	if had && old == value {
		return
	}
	ch := Change{Key: key, NewValue: strptr(value)}
	if had {
		ch.OldValue = strptr(old)
	}
	deliver(targets, ch)
}

func (h *MemoryHub) remove(origin *MemoryStore, key string) {
	h.mu.Lock()
	old, had := h.data[key]
	delete(h.data, key)
	targets := h.notifyTargets(origin)
	h.mu.Unlock()

	if !had {
		return
	}
	deliver(targets, Change{Key: key, OldValue: strptr(old)})
}

// notifyTargets collects subscriber callbacks of every context except
// the writing one. Must be called with h.mu held.
func (h *MemoryHub) notifyTargets(origin *MemoryStore) []func(Change) {
	var fns []func(Change)
	for _, c := range h.ctxs {
		if c == origin {
			continue
		}
		c.mu.RLock()
		for _, fn := range c.subs {
			fns = append(fns, fn)
		}
		c.mu.RUnlock()
	}
	return fns
}

func deliver(fns []func(Change), ch Change) {
	for _, fn := range fns {
		fn(ch)
	}
}

// MemoryStore is one execution context attached to a MemoryHub.
type MemoryStore struct {
	hub  *MemoryHub
	mu   sync.RWMutex
	subs map[int64]func(Change)
	next int64
}

// Get implements Store.
func (s *MemoryStore) Get(key string) (string, error) {
	s.hub.mu.RLock()
	defer s.hub.mu.RUnlock()

	v, ok := s.hub.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set implements Store.
func (s *MemoryStore) Set(key, value string) error {
	s.hub.set(s, key, value)
	return nil
}

// Remove implements Store.
func (s *MemoryStore) Remove(key string) error {
	s.hub.remove(s, key)
	return nil
}

// OnExternalChange implements Store.
func (s *MemoryStore) OnExternalChange(fn func(Change)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
