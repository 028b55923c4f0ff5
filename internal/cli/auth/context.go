package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/capitalhub-dev/capitalhub/internal/cli/client"
	"github.com/capitalhub-dev/capitalhub/internal/cli/session"
)

// State is where the session lifecycle currently stands
type State int

const (
	Hydrating State = iota
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Hydrating:
		return "hydrating"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Snapshot is a consistent view of the context at one instant
type Snapshot struct {
	State    State
	Identity session.Identity
	// Loading is true while hydrating or while a login/registration is outstanding
	Loading bool
}

// Authenticated reports whether a user is logged in
func (s Snapshot) Authenticated() bool {
	return s.State == Authenticated
}

// SessionStore is the persistence the context writes through
type SessionStore interface {
	Save(identity session.Identity, credential string) error
	Load() (*session.Session, bool)
	Clear() error
}

// API is the subset of the backend the context orchestrates
type API interface {
	Login(ctx context.Context, email, password string) (*client.LoginResponse, error)
	RegisterRep(ctx context.Context, req client.SignupRequest) (*client.LoginResponse, error)
	RegisterCompany(ctx context.Context, req client.SignupRequest) (*client.LoginResponse, error)
	ForgotPassword(ctx context.Context, email string) (*client.MessageResponse, error)
	ResetPassword(ctx context.Context, token, newPassword string) (*client.MessageResponse, error)
	ValidateResetToken(ctx context.Context, token string) (*client.MessageResponse, error)
}

// Context is the only writer of session state. It is passed explicitly to
// whatever needs it; there is no package level instance.
type Context struct {
	store SessionStore
	api   API
	log   zerolog.Logger
	now   func() time.Time

	hydrateOnce sync.Once
	notifyMu    sync.Mutex

	mu          sync.Mutex
	state       State
	identity    session.Identity
	pending     int
	subscribers map[int]func(Snapshot)
	nextSubID   int
}

// Option configures a Context
type Option func(*Context)

// WithLogger sets the logger
func WithLogger(log zerolog.Logger) Option {
	return func(c *Context) {
		c.log = log
	}
}

// WithClock overrides time.Now for expiry checks
func WithClock(now func() time.Time) Option {
	return func(c *Context) {
		c.now = now
	}
}

// NewContext creates a context in the Hydrating state
func NewContext(store SessionStore, api API, opts ...Option) *Context {
	c := &Context{
		store:       store,
		api:         api,
		log:         zerolog.Nop(),
		now:         time.Now,
		state:       Hydrating,
		subscribers: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Hydrate reads the persisted session once. Later calls return the current
// snapshot without touching the store again.
func (c *Context) Hydrate() Snapshot {
	c.hydrateOnce.Do(func() {
		sess, ok := c.store.Load()
		if ok && sess.Expired(c.now()) {
			c.log.Info().Str("email", sess.Identity.Email).Msg("Stored session has expired")
			if err := c.store.Clear(); err != nil {
				c.log.Error().Err(err).Msg("Failed to clear expired session")
			}
			ok = false
		}

		c.update(func() {
			if c.state != Hydrating {
				// A login completed before hydration; it wins.
				return
			}
			if ok {
				c.state = Authenticated
				c.identity = sess.Identity
			} else {
				c.state = Anonymous
			}
		})
	})
	return c.Snapshot()
}

// Snapshot returns the current state
func (c *Context) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// IsLoading reports whether session status is still being determined
func (c *Context) IsLoading() bool {
	return c.Snapshot().Loading
}

// Subscribe calls fn after every state change until the returned function
// is called. Calls are delivered one at a time in the order of the changes;
// fn must not log in or out from inside the callback.
func (c *Context) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// Login authenticates against the API and, only on success, persists the
// session and switches to Authenticated.
func (c *Context) Login(ctx context.Context, email, password string) (*client.LoginResponse, error) {
	if err := validateInput(LoginInput{Email: email, Password: password}); err != nil {
		return nil, err
	}
	return c.authenticate(func() (*client.LoginResponse, error) {
		return c.api.Login(ctx, email, password)
	})
}

// RegisterRep creates a sales rep account and logs it in
func (c *Context) RegisterRep(ctx context.Context, input RegisterInput) (*client.LoginResponse, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	return c.authenticate(func() (*client.LoginResponse, error) {
		return c.api.RegisterRep(ctx, input.signupRequest())
	})
}

// RegisterCompany creates a company account and logs it in
func (c *Context) RegisterCompany(ctx context.Context, input RegisterInput) (*client.LoginResponse, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	return c.authenticate(func() (*client.LoginResponse, error) {
		return c.api.RegisterCompany(ctx, input.signupRequest())
	})
}

// Logout forgets the session. No network call is made.
func (c *Context) Logout() error {
	err := c.store.Clear()
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to clear stored session")
	}

	c.update(func() {
		c.state = Anonymous
		c.identity = session.Identity{}
	})
	return err
}

// ForgotPassword requests a password reset email
func (c *Context) ForgotPassword(ctx context.Context, email string) (*client.MessageResponse, error) {
	if err := validateInput(ForgotPasswordInput{Email: email}); err != nil {
		return nil, err
	}
	return c.api.ForgotPassword(ctx, email)
}

// ValidateResetToken checks a reset token before a new password is chosen
func (c *Context) ValidateResetToken(ctx context.Context, token string) (*client.MessageResponse, error) {
	if err := validateInput(ResetTokenInput{Token: token}); err != nil {
		return nil, err
	}
	return c.api.ValidateResetToken(ctx, token)
}

// ResetPassword sets a new password. It does not log the user in.
func (c *Context) ResetPassword(ctx context.Context, input ResetPasswordInput) (*client.MessageResponse, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	return c.api.ResetPassword(ctx, input.Token, input.NewPassword)
}

// LogoutOnDenied is a pipeline policy that ends the session when the API
// rejects an authenticated request.
func (c *Context) LogoutOnDenied() client.Policy {
	return client.PolicyFunc(func(_ context.Context, req client.Request, apiErr *client.APIError) {
		if !req.RequiresAuth || !c.Snapshot().Authenticated() {
			return
		}
		c.log.Warn().Int("status", apiErr.Status).Msg("Session rejected by the server, logging out")
		_ = c.Logout()
	})
}

// authenticate runs a login-like call and applies its outcome
func (c *Context) authenticate(call func() (*client.LoginResponse, error)) (*client.LoginResponse, error) {
	c.update(func() { c.pending++ })

	resp, err := call()
	if err == nil {
		err = c.persist(resp)
	}

	if err != nil {
		c.update(func() {
			c.pending--
			if c.state != Authenticated {
				c.state = Anonymous
			}
		})
		return nil, err
	}

	c.update(func() {
		c.pending--
		c.state = Authenticated
		c.identity = session.Identity{Email: resp.Email, Role: session.Role(resp.Role)}
	})

	c.log.Debug().Str("email", resp.Email).Str("role", resp.Role).Msg("Logged in")
	return resp, nil
}

// persist saves a successful login response
func (c *Context) persist(resp *client.LoginResponse) error {
	if resp == nil || resp.AccessToken == "" {
		return errors.New("server did not return an access token")
	}

	role, err := session.ParseRole(resp.Role)
	if err != nil {
		return fmt.Errorf("server returned an unusable session: %w", err)
	}
	resp.Role = role.String()

	identity := session.Identity{Email: resp.Email, Role: role}
	if err := c.store.Save(identity, resp.AccessToken); err != nil {
		return err
	}
	return nil
}

// update mutates state under the lock and notifies subscribers once.
// notifyMu is held across the mutation and the callbacks so subscribers see
// snapshots in the order the changes were made.
func (c *Context) update(mutate func()) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	mutate()
	snap := c.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (c *Context) snapshotLocked() Snapshot {
	return Snapshot{
		State:    c.state,
		Identity: c.identity,
		Loading:  c.state == Hydrating || c.pending > 0,
	}
}
