package signal_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesahal/ijaa-client/core/signal"
)

type testSignal struct {
	Reason string
}

func TestBusPublish(t *testing.T) {
	t.Parallel()

	t.Run("delivers synchronously to all subscribers", func(t *testing.T) {
		t.Parallel()

		bus := signal.New[testSignal]()
		defer bus.Close()

		var got []string
		bus.Subscribe(func(_ context.Context, sig testSignal) error {
			got = append(got, "a:"+sig.Reason)
			return nil
		})
		bus.Subscribe(func(_ context.Context, sig testSignal) error {
			got = append(got, "b:"+sig.Reason)
			return nil
		})

		bus.Publish(context.Background(), testSignal{Reason: "token_expired"})

		// Synchronous delivery: both handlers ran before Publish returned.
		assert.ElementsMatch(t, []string{"a:token_expired", "b:token_expired"}, got)
	})

	t.Run("handler error does not block the others", func(t *testing.T) {
		t.Parallel()

		bus := signal.New[testSignal]()
		defer bus.Close()

		calls := 0
		bus.Subscribe(func(context.Context, testSignal) error {
			return errors.New("boom")
		})
		bus.Subscribe(func(context.Context, testSignal) error {
			calls++
			return nil
		})

		bus.Publish(context.Background(), testSignal{})
		assert.Equal(t, 1, calls)
	})

	t.Run("handler panic is contained", func(t *testing.T) {
		t.Parallel()

		bus := signal.New[testSignal]()
		defer bus.Close()

		calls := 0
		bus.Subscribe(func(context.Context, testSignal) error {
			panic("boom")
		})
		bus.Subscribe(func(context.Context, testSignal) error {
			calls++
			return nil
		})

		assert.NotPanics(t, func() {
			bus.Publish(context.Background(), testSignal{})
		})
		assert.Equal(t, 1, calls)
	})
}

func TestBusSubscribe(t *testing.T) {
	t.Parallel()

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		t.Parallel()

		bus := signal.New[testSignal]()
		defer bus.Close()

		calls := 0
		unsubscribe := bus.Subscribe(func(context.Context, testSignal) error {
			calls++
			return nil
		})

		bus.Publish(context.Background(), testSignal{})
		unsubscribe()
		unsubscribe() // second call is harmless
		bus.Publish(context.Background(), testSignal{})

		assert.Equal(t, 1, calls)
	})

	t.Run("publish after close is a no-op", func(t *testing.T) {
		t.Parallel()

		bus := signal.New[testSignal]()

		calls := 0
		bus.Subscribe(func(context.Context, testSignal) error {
			calls++
			return nil
		})

		bus.Close()
		bus.Publish(context.Background(), testSignal{})

		assert.Zero(t, calls)
	})
}
