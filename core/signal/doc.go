// Package signal provides a small typed publish/subscribe bus for
// application-wide signals, such as the forced-logout signal raised by
// API clients that observe an authentication rejection.
//
// Delivery is synchronous in the publisher's goroutine, which keeps
// signal-driven state transitions inside one update cycle. For
// buffered, multi-worker event processing this is the wrong tool; the
// bus exists for low-volume control signals with at most a handful of
// subscribers.
package signal
