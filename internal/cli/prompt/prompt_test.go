package prompt

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalhub-dev/capitalhub/internal/cli/session"
)

func nonInteractive(t *testing.T) *Terminal {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "stdin"))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return &Terminal{In: f, Out: &bytes.Buffer{}}
}

func TestTerminal_NonInteractive(t *testing.T) {
	term := nonInteractive(t)
	assert.False(t, term.Interactive())

	_, err := term.Input("Email", "")
	assert.ErrorIs(t, err, ErrNonInteractive)
	assert.Contains(t, err.Error(), "email")

	_, err = term.Password("Password")
	assert.ErrorIs(t, err, ErrNonInteractive)

	_, err = term.SelectRole("Account type", []session.Role{session.RoleRep, session.RoleCompany})
	assert.ErrorIs(t, err, ErrNonInteractive)

	ok, err := term.Confirm("Hire this candidate")
	assert.ErrorIs(t, err, ErrNonInteractive)
	assert.False(t, ok)
}

func TestTerminal_SelectRoleWithoutChoices(t *testing.T) {
	_, err := nonInteractive(t).SelectRole("Account type", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNonInteractive)
}

func TestRoleLabel(t *testing.T) {
	assert.Contains(t, RoleLabel(session.RoleRep), "Sales rep")
	assert.Contains(t, RoleLabel(session.RoleCompany), "Company")
	assert.Equal(t, "GUEST", RoleLabel(session.Role("GUEST")))
}
