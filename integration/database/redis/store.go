package redis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mesahal/ijaa-client/core/sessionstore"
	"github.com/mesahal/ijaa-client/pkg/logger"
)

const (
	defaultHashKey = "ijaa:session"
	defaultChannel = "ijaa:session:changes"
)

// changeMessage is the wire shape published on the change channel.
// Origin identifies the writing store instance so contexts can discard
// their own writes.
type changeMessage struct {
	Origin   string  `json:"origin"`
	Key      string  `json:"key"`
	NewValue *string `json:"newValue,omitempty"`
	OldValue *string `json:"oldValue,omitempty"`
}

func encodeChange(origin string, ch sessionstore.Change) ([]byte, error) {
	return json.Marshal(changeMessage{
		Origin:   origin,
		Key:      ch.Key,
		NewValue: ch.NewValue,
		OldValue: ch.OldValue,
	})
}

// decodeChange parses a change message, reporting ok=false for
// malformed payloads or messages published by origin itself.
func decodeChange(raw []byte, origin string) (sessionstore.Change, bool) {
	var msg changeMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return sessionstore.Change{}, false
	}
	if msg.Origin == origin || msg.Key == "" {
		return sessionstore.Change{}, false
	}
	return sessionstore.Change{Key: msg.Key, NewValue: msg.NewValue, OldValue: msg.OldValue}, true
}

// Store is a sessionstore.Store backed by one Redis hash, with change
// notifications fanned out over pub/sub so clients on different hosts
// observe each other's session transitions.
type Store struct {
	client  *redis.Client
	hashKey string
	channel string
	origin  string
	log     *slog.Logger

	mu     sync.Mutex
	subs   map[int64]func(sessionstore.Change)
	next   int64
	cancel context.CancelFunc
	closed bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithHashKey overrides the Redis hash holding the key space.
func WithHashKey(key string) StoreOption {
	return func(s *Store) {
		if key != "" {
			s.hashKey = key
		}
	}
}

// WithChannel overrides the pub/sub channel carrying change messages.
func WithChannel(channel string) StoreOption {
	return func(s *Store) {
		if channel != "" {
			s.channel = channel
		}
	}
}

// WithStoreLogger sets the store logger.
func WithStoreLogger(log *slog.Logger) StoreOption {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// NewStore creates a Redis-backed session store and starts consuming
// the change channel.
func NewStore(client *redis.Client, opts ...StoreOption) *Store {
	s := &Store{
		client:  client,
		hashKey: defaultHashKey,
		channel: defaultChannel,
		origin:  uuid.NewString(),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		subs:    make(map[int64]func(sessionstore.Change)),
	}
	for _, opt := range opts {
		opt(s)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.listen(ctx)

	return s
}

// Get implements sessionstore.Store.
func (s *Store) Get(key string) (string, error) {
	v, err := s.client.HGet(context.Background(), s.hashKey, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", sessionstore.ErrNotFound
	}
	if err != nil {
		s.log.Warn("session read failed", logger.Key(key), logger.Error(err))
		return "", errors.Join(sessionstore.ErrUnavailable, err)
	}
	return v, nil
}

// Set implements sessionstore.Store.
func (s *Store) Set(key, value string) error {
	ctx := context.Background()

	old, err := s.client.HGet(ctx, s.hashKey, key).Result()
	had := err == nil

	if err := s.client.HSet(ctx, s.hashKey, key, value).Err(); err != nil {
		s.log.Warn("session write failed", logger.Key(key), logger.Error(err))
		return errors.Join(sessionstore.ErrUnavailable, err)
	}

	ch := sessionstore.Change{Key: key, NewValue: &value}
	if had {
		if old == value {
			return nil
		}
		ch.OldValue = &old
	}
	s.publish(ctx, ch)
	return nil
}

// Remove implements sessionstore.Store.
func (s *Store) Remove(key string) error {
	ctx := context.Background()

	old, err := s.client.HGet(ctx, s.hashKey, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}

	if err := s.client.HDel(ctx, s.hashKey, key).Err(); err != nil {
		s.log.Warn("session remove failed", logger.Key(key), logger.Error(err))
		return errors.Join(sessionstore.ErrUnavailable, err)
	}

	ch := sessionstore.Change{Key: key}
	if err == nil {
		ch.OldValue = &old
	}
	s.publish(ctx, ch)
	return nil
}

// OnExternalChange implements sessionstore.Store.
func (s *Store) OnExternalChange(fn func(sessionstore.Change)) func() {
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

// Close stops the change listener. The Redis client is owned by the
// caller and stays open.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return sessionstore.ErrClosed
	}
	s.closed = true
	s.cancel()
	return nil
}

func (s *Store) publish(ctx context.Context, ch sessionstore.Change) {
	raw, err := encodeChange(s.origin, ch)
	if err != nil {
		return
	}
	if err := s.client.Publish(ctx, s.channel, raw).Err(); err != nil {
		s.log.Warn("change publish failed", logger.Key(ch.Key), logger.Error(err))
	}
}

func (s *Store) listen(ctx context.Context) {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			ch, ok := decodeChange([]byte(msg.Payload), s.origin)
			if !ok {
				continue
			}

			s.mu.Lock()
			fns := make([]func(sessionstore.Change), 0, len(s.subs))
			for _, fn := range s.subs {
				fns = append(fns, fn)
			}
			s.mu.Unlock()

			for _, fn := range fns {
				fn(ch)
			}
		}
	}
}
