package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func newTestStore(t *testing.T) (*Store, *MemoryBackend) {
	t.Helper()
	backend := NewMemoryBackend()
	return NewStore(backend, "session-test", zerolog.Nop()), backend
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "a@b.com",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestStore_RoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		identity   Identity
		credential string
	}{
		{"rep", Identity{Email: "a@b.com", Role: RoleRep}, "token-rep"},
		{"company", Identity{Email: "hr@acme.io", Role: RoleCompany}, "token-company"},
		{"admin", Identity{Email: "root@capitalhub.io", Role: RoleAdmin}, "eyJhbGciOi.payload.sig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newTestStore(t)

			require.NoError(t, store.Save(tt.identity, tt.credential))

			sess, ok := store.Load()
			require.True(t, ok)
			assert.Equal(t, tt.credential, sess.Credential)
			assert.Equal(t, tt.identity, sess.Identity)
		})
	}
}

func TestStore_LoadEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	sess, ok := store.Load()
	assert.False(t, ok)
	assert.Nil(t, sess)
}

func TestStore_CorruptRecordIsCleared(t *testing.T) {
	store, backend := newTestStore(t)
	require.NoError(t, store.Save(Identity{Email: "a@b.com", Role: RoleRep}, "tok"))

	require.NoError(t, backend.Set("session-test", "{not json"))

	_, ok := store.Load()
	assert.False(t, ok)

	_, err := backend.Get("session-test")
	assert.ErrorIs(t, err, ErrNotFound, "corrupt record should have been removed")

	_, ok = store.Load()
	assert.False(t, ok)
}

func TestStore_IncompleteRecordIsCleared(t *testing.T) {
	records := map[string]string{
		"missing credential": `{"email":"a@b.com","role":"REP"}`,
		"missing identity":   `{"accessToken":"tok"}`,
		"unknown role":       `{"accessToken":"tok","email":"a@b.com","role":"GUEST"}`,
	}

	for name, raw := range records {
		t.Run(name, func(t *testing.T) {
			store, backend := newTestStore(t)
			require.NoError(t, backend.Set("session-test", raw))

			_, ok := store.Load()
			assert.False(t, ok)

			_, err := backend.Get("session-test")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Clear())

	require.NoError(t, store.Save(Identity{Email: "a@b.com", Role: RoleRep}, "tok"))
	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())

	_, ok := store.Credential()
	assert.False(t, ok)
}

func TestSession_Expiry(t *testing.T) {
	now := time.Now()

	expired := Session{Credential: signedToken(t, now.Add(-time.Minute))}
	assert.True(t, expired.Expired(now))

	valid := Session{Credential: signedToken(t, now.Add(time.Hour))}
	assert.False(t, valid.Expired(now))
	exp, ok := valid.ExpiresAt()
	require.True(t, ok)
	assert.WithinDuration(t, now.Add(time.Hour), exp, time.Second)

	opaque := Session{Credential: "not-a-jwt"}
	assert.False(t, opaque.Expired(now))
	_, ok = opaque.ExpiresAt()
	assert.False(t, ok)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" company ")
	require.NoError(t, err)
	assert.Equal(t, RoleCompany, r)

	_, err = ParseRole("guest")
	assert.Error(t, err)
}

func TestKeyFor(t *testing.T) {
	assert.Equal(t, "session-api.capitalhub.io", KeyFor("https://api.capitalhub.io"))
	assert.Equal(t, "session-localhost:8081", KeyFor("http://localhost:8081"))
	assert.Equal(t, "session", KeyFor(""))
}

func TestFileBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", sessionFile)
	backend := NewFileBackend(path)

	_, err := backend.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, backend.Set("k", "v"))
	require.NoError(t, backend.Set("other", "w"))

	value, err := backend.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, backend.Delete("k"))
	assert.ErrorIs(t, backend.Delete("k"), ErrNotFound)

	value, err = backend.Get("other")
	require.NoError(t, err)
	assert.Equal(t, "w", value)
}

func TestFileBackend_StoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), sessionFile)

	first := NewStore(NewFileBackend(path), "session-x", zerolog.Nop())
	require.NoError(t, first.Save(Identity{Email: "a@b.com", Role: RoleRep}, "tok"))

	second := NewStore(NewFileBackend(path), "session-x", zerolog.Nop())
	sess, ok := second.Load()
	require.True(t, ok)
	assert.Equal(t, "tok", sess.Credential)
}

func TestKeyringBackend(t *testing.T) {
	keyring.MockInit()
	backend := NewKeyringBackend()

	_, err := backend.Get("session-test")
	assert.ErrorIs(t, err, ErrNotFound)

	store := NewStore(backend, "session-test", zerolog.Nop())
	require.NoError(t, store.Save(Identity{Email: "a@b.com", Role: RoleCompany}, "tok"))

	token, ok := store.Credential()
	require.True(t, ok)
	assert.Equal(t, "tok", token)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
}

func TestChain(t *testing.T) {
	durable, _ := newTestStore(t)
	t.Setenv(EnvAccessToken, "from-env")

	chain := Chain(durable, EnvCredential{})

	token, ok := chain.Credential()
	require.True(t, ok)
	assert.Equal(t, "from-env", token, "fallback used when durable store is empty")

	require.NoError(t, durable.Save(Identity{Email: "a@b.com", Role: RoleRep}, "from-store"))
	token, ok = chain.Credential()
	require.True(t, ok)
	assert.Equal(t, "from-store", token, "durable store wins")

	t.Setenv(EnvAccessToken, "")
	require.NoError(t, durable.Clear())
	_, ok = chain.Credential()
	assert.False(t, ok)
}

func TestFileBackend_CorruptFileIsHealed(t *testing.T) {
	path := filepath.Join(t.TempDir(), sessionFile)
	store := NewStore(NewFileBackend(path), "session-x", zerolog.Nop())
	require.NoError(t, store.Save(Identity{Email: "a@b.com", Role: RoleRep}, "tok"))

	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	_, err := NewFileBackend(path).Get("session-x")
	assert.ErrorIs(t, err, ErrCorrupt)

	_, ok := store.Load()
	assert.False(t, ok)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data), "loading a corrupt file rewrites it")

	assert.NoError(t, store.Clear())

	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0600))
	assert.NoError(t, store.Clear(), "logout succeeds whatever the file holds")
	_, ok = store.Load()
	assert.False(t, ok)
}
