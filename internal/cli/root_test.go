package cli

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalhub-dev/capitalhub/internal/cli/commands"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCmd(commands.NewApp(commands.WithLogger(zerolog.Nop())))

	for _, path := range [][]string{
		{"login"}, {"register"}, {"logout"}, {"whoami"},
		{"forgot-password"}, {"reset-password"}, {"upload"},
		{"rep", "dashboard"}, {"rep", "jobs", "show"}, {"rep", "apply"}, {"rep", "profile", "update"},
		{"company", "applications", "status"}, {"company", "jobs", "create"}, {"company", "review"},
		{"training", "courses"}, {"training", "complete"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	assert.NotNil(t, root.PersistentFlags().Lookup("output"))
}

func TestVersionCommand(t *testing.T) {
	root := NewRootCmd(commands.NewApp(commands.WithLogger(zerolog.Nop())))

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "capitalhub version dev\n", out.String())
}
