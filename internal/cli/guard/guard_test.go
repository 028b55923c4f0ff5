package guard

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalhub-dev/capitalhub/internal/cli/auth"
	"github.com/capitalhub-dev/capitalhub/internal/cli/client"
	"github.com/capitalhub-dev/capitalhub/internal/cli/session"
)

func authenticated(role session.Role) auth.Snapshot {
	return auth.Snapshot{
		State:    auth.Authenticated,
		Identity: session.Identity{Email: "someone@acme.io", Role: role},
	}
}

func TestDecide(t *testing.T) {
	repOnly := []session.Role{session.RoleRep}

	tests := []struct {
		name     string
		snapshot auth.Snapshot
		allowed  []session.Role
		want     Decision
	}{
		{
			name:     "hydrating shows loading",
			snapshot: auth.Snapshot{State: auth.Hydrating, Loading: true},
			allowed:  repOnly,
			want:     Decision{Outcome: Loading},
		},
		{
			name:     "allowed role renders",
			snapshot: authenticated(session.RoleRep),
			allowed:  repOnly,
			want:     Decision{Outcome: Render},
		},
		{
			name:     "company on rep pages goes to its dashboard",
			snapshot: authenticated(session.RoleCompany),
			allowed:  repOnly,
			want:     Decision{Outcome: Redirect, To: "/company/dashboard", Replace: true},
		},
		{
			name:     "rep on company pages goes to its dashboard",
			snapshot: authenticated(session.RoleRep),
			allowed:  []session.Role{session.RoleCompany},
			want:     Decision{Outcome: Redirect, To: "/rep/dashboard", Replace: true},
		},
		{
			name:     "unknown role falls back to the default page",
			snapshot: authenticated(session.Role("GUEST")),
			allowed:  repOnly,
			want:     Decision{Outcome: Redirect, To: "/", Replace: true},
		},
		{
			name:     "admin passes both route groups",
			snapshot: authenticated(session.RoleAdmin),
			allowed:  Routes[1].Allowed,
			want:     Decision{Outcome: Render},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.snapshot, tt.allowed))
		})
	}
}

func TestDecide_AnonymousAlwaysRedirectsToLogin(t *testing.T) {
	roleSets := [][]session.Role{
		nil,
		{},
		{session.RoleRep},
		{session.RoleCompany},
		{session.RoleRep, session.RoleCompany, session.RoleAdmin},
	}

	for _, allowed := range roleSets {
		d := Decide(auth.Snapshot{State: auth.Anonymous}, allowed)
		assert.Equal(t, Redirect, d.Outcome)
		assert.Equal(t, LoginPath, d.To)
		assert.True(t, d.Replace)
	}
}

func TestLandingPage(t *testing.T) {
	assert.Equal(t, "/rep/dashboard", LandingPage(session.RoleRep))
	assert.Equal(t, "/company/dashboard", LandingPage(session.RoleCompany))
	assert.Equal(t, "/", LandingPage(session.RoleAdmin))
	assert.Equal(t, "/", LandingPage(""))
}

func TestAllowedFor(t *testing.T) {
	allowed, ok := AllowedFor("/rep/jobs")
	require.True(t, ok)
	assert.ElementsMatch(t, []session.Role{session.RoleRep, session.RoleAdmin}, allowed)

	allowed, ok = AllowedFor("/company")
	require.True(t, ok)
	assert.ElementsMatch(t, []session.Role{session.RoleCompany, session.RoleAdmin}, allowed)

	_, ok = AllowedFor("/reports")
	assert.False(t, ok)

	_, ok = AllowedFor("/login")
	assert.False(t, ok)
}

func TestRequire(t *testing.T) {
	allowed := []session.Role{session.RoleRep}

	assert.NoError(t, Require(authenticated(session.RoleRep), allowed))

	err := Require(auth.Snapshot{State: auth.Anonymous}, allowed)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Contains(t, err.Error(), "capitalhub login")

	err = Require(authenticated(session.RoleCompany), allowed)
	var redirect *RedirectError
	require.ErrorAs(t, err, &redirect)
	assert.Equal(t, "/company/dashboard", redirect.Decision.To)
	assert.Contains(t, err.Error(), "capitalhub company dashboard")
	assert.NotErrorIs(t, err, ErrNotAuthenticated)

	assert.ErrorIs(t, Require(auth.Snapshot{State: auth.Hydrating}, allowed), ErrNotAuthenticated)
}

type noopAPI struct{ auth.API }

func (noopAPI) Login(_ context.Context, email, _ string) (*client.LoginResponse, error) {
	return &client.LoginResponse{AccessToken: "tok", Email: email, Role: "REP"}, nil
}

// After logout a page that was visible redirects to login
func TestGuard_LogoutRedirects(t *testing.T) {
	store := session.NewStore(session.NewMemoryBackend(), "session-test", zerolog.Nop())
	ac := auth.NewContext(store, noopAPI{})
	ac.Hydrate()

	_, err := ac.Login(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)

	allowed, _ := AllowedFor("/rep/dashboard")
	assert.Equal(t, Render, Decide(ac.Snapshot(), allowed).Outcome)

	require.NoError(t, ac.Logout())

	_, ok := store.Load()
	assert.False(t, ok)

	d := Decide(ac.Snapshot(), allowed)
	assert.Equal(t, Redirect, d.Outcome)
	assert.Equal(t, LoginPath, d.To)
}
