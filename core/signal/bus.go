package signal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mesahal/ijaa-client/pkg/logger"
)

// Bus is a typed publish/subscribe channel with synchronous delivery:
// Publish runs every handler in the caller's goroutine before
// returning, so state derived from a signal is settled within the same
// update cycle. Handlers are panic-safe; a panicking handler is
// converted to an error and does not affect the others.
//
// Bus is safe for concurrent use. The zero value is not usable; create
// buses with New.
type Bus[T any] struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]func(context.Context, T) error
	log    *slog.Logger
	closed bool
}

// Option configures a Bus.
type Option[T any] func(*Bus[T])

// WithLogger sets the logger for handler failures.
func WithLogger[T any](log *slog.Logger) Option[T] {
	return func(b *Bus[T]) {
		if log != nil {
			b.log = log
		}
	}
}

// New creates an empty signal bus.
func New[T any](opts ...Option[T]) *Bus[T] {
	b := &Bus[T]{
		subs: make(map[uuid.UUID]func(context.Context, T) error),
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a handler. The returned function unsubscribes;
// calling it more than once is harmless.
func (b *Bus[T]) Subscribe(fn func(context.Context, T) error) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New()
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers the signal to every subscriber in the caller's
// goroutine. Handler errors are logged, not returned: a signal is a
// broadcast, and one failing consumer must not hide the signal from
// the caller's perspective. Publishing on a closed bus is a no-op.
func (b *Bus[T]) Publish(ctx context.Context, sig T) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	fns := make([]func(context.Context, T) error, 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		if err := safeInvoke(ctx, fn, sig); err != nil {
			b.log.Warn("signal handler failed", logger.Error(err))
		}
	}
}

// Close drops all subscribers and makes further publishes no-ops.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.subs = make(map[uuid.UUID]func(context.Context, T) error)
}

func safeInvoke[T any](ctx context.Context, fn func(context.Context, T) error, sig T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("signal handler panic: %v", r)
		}
	}()
	return fn(ctx, sig)
}
