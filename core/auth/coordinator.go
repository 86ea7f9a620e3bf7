package auth

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mesahal/ijaa-client/core/session"
	"github.com/mesahal/ijaa-client/core/signal"
	"github.com/mesahal/ijaa-client/pkg/logger"
)

// State is the reactive view the coordinator exposes to the rest of
// the application. At most one of User and Admin is non-nil. Loading
// is true only between construction and the end of Start.
type State struct {
	User    *session.UserRecord
	Admin   *session.AdminRecord
	Loading bool
}

// Principal is the kind-independent view of whoever is signed in.
type Principal struct {
	Type  session.Type
	Email string
	Token string
	Name  string
}

// Coordinator orchestrates sign-in, sign-up and sign-out for both
// principal kinds on top of the session manager, and keeps its
// in-memory mirrors consistent with the persisted store across
// external notifications and forced logouts.
//
// Mirror updates are atomic from a subscriber's perspective: no
// callback ever observes both records non-nil, or the previous kind
// after the other kind has taken over.
type Coordinator struct {
	api      Client
	sessions *session.Manager
	signals  *signal.Bus[Logout]
	notify   Notifier
	log      *slog.Logger

	mu    sync.RWMutex
	state State
	subs  map[uuid.UUID]func(State)

	unsubStorage func()
	unsubLogout  func()
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithNotifier sets the sink for user-visible confirmations.
func WithNotifier(n Notifier) CoordinatorOption {
	return func(c *Coordinator) {
		if n != nil {
			c.notify = n
		}
	}
}

// WithLogoutSignal subscribes the coordinator to the application-wide
// forced-logout bus during Start.
func WithLogoutSignal(bus *signal.Bus[Logout]) CoordinatorOption {
	return func(c *Coordinator) {
		c.signals = bus
	}
}

// WithLogger sets the coordinator logger.
func WithLogger(log *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if log != nil {
			c.log = log
		}
	}
}

// NewCoordinator creates a coordinator in the Initializing state.
// Call Start to load the persisted session and begin observing
// external changes.
func NewCoordinator(api Client, sessions *session.Manager, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		api:      api,
		sessions: sessions,
		notify:   nopNotifier{},
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		state:    State{Loading: true},
		subs:     make(map[uuid.UUID]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start restores the persisted session and installs the storage and
// logout subscriptions. Any panic in the restore sequence fails safe:
// the persisted state is cleared and the coordinator lands in the
// unauthenticated state rather than an indeterminate one. Loading is
// guaranteed false when Start returns.
func (c *Coordinator) Start(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("session restore failed, clearing persisted state", slog.Any("panic", r))
			c.sessions.ClearAll()
			c.setState(State{})
		}
	}()

	c.sessions.CleanupLegacyKeys()
	c.adopt(c.sessions.Current())

	c.unsubStorage = c.sessions.OnChange(func(snap session.Snapshot) {
		c.adopt(snap)
	})

	if c.signals != nil {
		c.unsubLogout = c.signals.Subscribe(func(ctx context.Context, sig Logout) error {
			c.forceLogout(sig.Reason)
			return nil
		})
	}
}

// Stop removes the storage and logout subscriptions. The current state
// is left as is.
func (c *Coordinator) Stop() {
	if c.unsubStorage != nil {
		c.unsubStorage()
		c.unsubStorage = nil
	}
	if c.unsubLogout != nil {
		c.unsubLogout()
		c.unsubLogout = nil
	}
}

// SignIn authenticates an ordinary member. On success any active admin
// session is cleared before the user record is persisted. On failure
// the state is unchanged and the error is returned for display.
func (c *Coordinator) SignIn(ctx context.Context, email, password string) error {
	res, err := c.api.SignIn(ctx, email, password)
	if err != nil {
		return err
	}

	rec := session.UserRecord{Token: res.Token, Email: email, UserID: res.UserID}
	c.sessions.ResolveConflict(session.TypeUser)
	if err := c.sessions.SetUser(rec); err != nil {
		return err
	}

	c.adopt(c.sessions.Current())
	c.log.Info("user signed in", logger.Redacted("token", rec.Token))
	return nil
}

// SignUp registers a new member and signs them in. A remote
// "already exists" rejection surfaces as ErrAlreadyExists.
func (c *Coordinator) SignUp(ctx context.Context, params SignUpParams) error {
	res, err := c.api.SignUp(ctx, params)
	if err != nil {
		return err
	}

	rec := session.UserRecord{Token: res.Token, Email: params.Email, UserID: res.UserID}
	c.sessions.ResolveConflict(session.TypeUser)
	if err := c.sessions.SetUser(rec); err != nil {
		return err
	}

	c.adopt(c.sessions.Current())
	return nil
}

// AdminSignIn authenticates an administrator. A transport-level
// success with any role other than the literal ADMIN is a hard
// failure: nothing is persisted and ErrInvalidAdminRole is returned.
func (c *Coordinator) AdminSignIn(ctx context.Context, email, password string) error {
	res, err := c.api.AdminSignIn(ctx, email, password)
	if err != nil {
		return err
	}
	if res.Role != session.RoleAdmin {
		c.log.Warn("admin login rejected", logger.SessionType(res.Role))
		return ErrInvalidAdminRole
	}

	rec := session.AdminRecord{
		Token:   res.Token,
		Email:   res.Email,
		AdminID: res.AdminID,
		Name:    res.Name,
		Role:    res.Role,
		Active:  res.Active,
	}
	c.sessions.ResolveConflict(session.TypeAdmin)
	if err := c.sessions.SetAdmin(rec); err != nil {
		return err
	}

	c.adopt(c.sessions.Current())
	c.log.Info("admin signed in", logger.Redacted("token", rec.Token))
	return nil
}

// SignOut clears both mirrors and the persisted state, and emits a
// user-visible confirmation.
func (c *Coordinator) SignOut(ctx context.Context) {
	c.sessions.ClearAll()
	c.setState(State{})
	c.notify.Success("Signed out successfully")
}

// AdminSignOut is symmetric to SignOut.
func (c *Coordinator) AdminSignOut(ctx context.Context) {
	c.sessions.ClearAll()
	c.setState(State{})
	c.notify.Success("Signed out successfully")
}

// Subscribe registers a state observer. The observer is invoked
// immediately with the current state, then on every change. The
// returned function unsubscribes.
func (c *Coordinator) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	id := uuid.New()
	c.subs[id] = fn
	current := c.state
	c.mu.Unlock()

	fn(current)

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// State returns the current mirrors and loading flag.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsAuthenticated reports whether either principal kind is signed in.
func (c *Coordinator) IsAuthenticated() bool {
	st := c.State()
	return st.User != nil || st.Admin != nil
}

// IsUser reports whether an ordinary member is signed in.
func (c *Coordinator) IsUser() bool {
	return c.State().User != nil
}

// IsAdmin reports whether an administrator is signed in.
func (c *Coordinator) IsAdmin() bool {
	return c.State().Admin != nil
}

// CurrentUserType returns the active principal kind, or TypeNone.
func (c *Coordinator) CurrentUserType() session.Type {
	st := c.State()
	switch {
	case st.User != nil:
		return session.TypeUser
	case st.Admin != nil:
		return session.TypeAdmin
	}
	return session.TypeNone
}

// CurrentUser returns the kind-independent view of whichever mirror is
// set. The second return is false when nobody is signed in.
func (c *Coordinator) CurrentUser() (Principal, bool) {
	st := c.State()
	switch {
	case st.User != nil:
		return Principal{Type: session.TypeUser, Email: st.User.Email, Token: st.User.Token}, true
	case st.Admin != nil:
		return Principal{Type: session.TypeAdmin, Email: st.Admin.Email, Token: st.Admin.Token, Name: st.Admin.Name}, true
	}
	return Principal{}, false
}

// adopt replaces both mirrors with the given persisted snapshot. The
// snapshot is authoritative: whatever an in-flight request believed,
// the last writer on the store wins.
func (c *Coordinator) adopt(snap session.Snapshot) {
	c.setState(State{User: snap.User, Admin: snap.Admin})
}

func (c *Coordinator) forceLogout(reason string) {
	c.log.Info("forced logout", logger.Reason(reason))
	c.sessions.ClearAll()
	c.setState(State{})
	c.notify.Warning("Your session has expired. Please sign in again.")
}

// setState swaps the state and notifies subscribers outside the lock,
// each with the same settled value.
func (c *Coordinator) setState(next State) {
	c.mu.Lock()
	c.state = next
	fns := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}
