// Package redis provides Redis client initialization and a
// Redis-backed session store for clients sharing session state over
// the network.
//
// Connect validates the connection URL, retries transient failures
// with a fixed interval and verifies connectivity with a ping before
// returning the client. Supported URL schemes are redis:// and
// rediss:// (TLS).
//
// Store implements sessionstore.Store on one Redis hash. Mutations are
// fanned out on a pub/sub channel as change messages tagged with the
// writing instance's origin id, so a store never observes its own
// writes — the same self-suppression contract the in-process stores
// honor.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	store := redis.NewStore(client)
//	defer store.Close()
//
//	manager := session.NewManager(store)
//
// Errors can be checked with errors.Is against the package-level
// variables; store operations degrade to sessionstore.ErrUnavailable
// so callers treat a broken connection as "absent" rather than fatal.
package redis
