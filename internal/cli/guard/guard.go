package guard

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/capitalhub-dev/capitalhub/internal/cli/auth"
	"github.com/capitalhub-dev/capitalhub/internal/cli/session"
)

const (
	LoginPath   = "/login"
	DefaultPath = "/"
)

// ErrNotAuthenticated is returned when a gated command runs without a session
var ErrNotAuthenticated = errors.New("not logged in")

// Outcome is what the guard tells the caller to do
type Outcome int

const (
	Loading Outcome = iota
	Redirect
	Render
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	case Render:
		return "render"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Decision is the guard's verdict for one snapshot
type Decision struct {
	Outcome Outcome
	// To is set for redirects
	To string
	// Replace means the gated page must not stay in history
	Replace bool
}

// Route gates every path under Prefix
type Route struct {
	Prefix  string
	Allowed []session.Role
}

// Routes is the gated part of the application
var Routes = []Route{
	{Prefix: "/rep", Allowed: []session.Role{session.RoleRep, session.RoleAdmin}},
	{Prefix: "/company", Allowed: []session.Role{session.RoleCompany, session.RoleAdmin}},
}

// AllowedFor returns the roles allowed on path, and false when path is not gated
func AllowedFor(path string) ([]session.Role, bool) {
	for _, r := range Routes {
		if path == r.Prefix || strings.HasPrefix(path, r.Prefix+"/") {
			return r.Allowed, true
		}
	}
	return nil, false
}

// LandingPage is where a role goes after login or when it hits a page it
// may not see.
func LandingPage(role session.Role) string {
	switch role {
	case session.RoleRep:
		return "/rep/dashboard"
	case session.RoleCompany:
		return "/company/dashboard"
	default:
		return DefaultPath
	}
}

// Decide is a pure function of the auth snapshot
func Decide(s auth.Snapshot, allowed []session.Role) Decision {
	switch {
	case s.State == auth.Hydrating:
		return Decision{Outcome: Loading}
	case !s.Authenticated():
		return Decision{Outcome: Redirect, To: LoginPath, Replace: true}
	case !slices.Contains(allowed, s.Identity.Role):
		return Decision{Outcome: Redirect, To: LandingPage(s.Identity.Role), Replace: true}
	default:
		return Decision{Outcome: Render}
	}
}

// RedirectError carries a redirect decision out of a command
type RedirectError struct {
	Decision Decision
	Role     session.Role
}

func (e *RedirectError) Error() string {
	if e.Decision.To == LoginPath {
		return "not logged in, run `capitalhub login` first"
	}
	if cmd := CommandFor(e.Decision.To); cmd != "" {
		return fmt.Sprintf("not available for %s accounts, try `capitalhub %s`", e.Role, cmd)
	}
	return fmt.Sprintf("not available for %s accounts", e.Role)
}

func (e *RedirectError) Unwrap() error {
	if e.Decision.To == LoginPath {
		return ErrNotAuthenticated
	}
	return nil
}

// CommandFor maps a landing page onto the command that shows it
func CommandFor(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return ""
	}
	return strings.ReplaceAll(trimmed, "/", " ")
}

// Require turns a decision into an error for callers that cannot wait or
// navigate. Loading is reported as not authenticated since nothing was
// hydrated.
func Require(s auth.Snapshot, allowed []session.Role) error {
	d := Decide(s, allowed)
	switch d.Outcome {
	case Render:
		return nil
	case Loading:
		return fmt.Errorf("session not loaded: %w", ErrNotAuthenticated)
	default:
		return &RedirectError{Decision: d, Role: s.Identity.Role}
	}
}
