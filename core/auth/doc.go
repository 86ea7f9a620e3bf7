// Package auth coordinates authentication for the two mutually
// exclusive principal kinds of the client: ordinary members and
// administrators.
//
// The Coordinator drives the remote auth API (the Client interface),
// persists successful sign-ins through the session manager with
// conflict resolution, and exposes a reactive State to consumers. It
// moves through three logical phases: Initializing (Loading true,
// until Start finishes restoring the persisted session), then
// Unauthenticated or authenticated as exactly one kind.
//
// Two external inputs can change the state without any local call: a
// storage change made by another execution context, which fully
// replaces the mirrors with the new persisted snapshot, and the
// application-wide Logout signal, which clears everything and reports
// an expired session. Both are installed by Start and removed by Stop.
//
// Errors from the remote API are returned to the caller verbatim for
// display; validation and store failures below the coordinator are
// absorbed, with the unauthenticated state as the safe fallback.
package auth
