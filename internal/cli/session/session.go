package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Role is the closed set of account kinds the API issues sessions for
type Role string

const (
	RoleRep     Role = "REP"
	RoleCompany Role = "COMPANY"
	RoleAdmin   Role = "ADMIN"
)

// Roles lists every valid role
var Roles = []Role{RoleRep, RoleCompany, RoleAdmin}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleRep, RoleCompany, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseRole converts user or server supplied text into a Role
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q (expected one of REP, COMPANY, ADMIN)", s)
	}
	return r, nil
}

// Identity is who a session belongs to
type Identity struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Session is a credential together with the identity it was issued to
type Session struct {
	Credential string
	Identity   Identity
}

// ExpiresAt returns the exp claim of a JWT credential. The signature is not
// checked; only the server can do that. Opaque credentials report false.
func (s Session) ExpiresAt() (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Credential, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether the credential is known to be expired at now
func (s Session) Expired(now time.Time) bool {
	exp, ok := s.ExpiresAt()
	return ok && !now.Before(exp)
}

// record is the persisted form. Credential and identity live in one value so
// they are always written and removed together.
type record struct {
	AccessToken string `json:"accessToken"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
}

// Store persists the current session through a Backend
type Store struct {
	backend Backend
	key     string
	log     zerolog.Logger
}

// NewStore creates a session store that keeps its record under key
func NewStore(backend Backend, key string, log zerolog.Logger) *Store {
	return &Store{
		backend: backend,
		key:     key,
		log:     log,
	}
}

// KeyFor returns the storage key for sessions issued by the API at baseURL,
// so logging in to a staging server does not overwrite a production session.
func KeyFor(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return "session"
	}
	return fmt.Sprintf("session-%s", u.Host)
}

// Save writes identity and credential as a single record
func (s *Store) Save(identity Identity, credential string) error {
	data, err := json.Marshal(record{
		AccessToken: credential,
		Email:       identity.Email,
		Role:        identity.Role,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.backend.Set(s.key, string(data)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns the persisted session. A record that cannot be decoded is
// treated as corruption: it is removed and Load reports no session.
func (s *Store) Load() (*Session, bool) {
	raw, err := s.backend.Get(s.key)
	if errors.Is(err, ErrCorrupt) {
		s.log.Warn().Err(err).Str("key", s.key).Msg("Discarding unreadable session")
		if err := s.Clear(); err != nil {
			s.log.Error().Err(err).Str("key", s.key).Msg("Failed to clear unreadable session")
		}
		return nil, false
	}
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Warn().Err(err).Str("key", s.key).Msg("Failed to read session")
		}
		return nil, false
	}

	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || !rec.complete() {
		s.log.Warn().Err(err).Str("key", s.key).Msg("Discarding unreadable session")
		if err := s.Clear(); err != nil {
			s.log.Error().Err(err).Str("key", s.key).Msg("Failed to clear unreadable session")
		}
		return nil, false
	}

	return &Session{
		Credential: rec.AccessToken,
		Identity: Identity{
			Email: rec.Email,
			Role:  rec.Role,
		},
	}, true
}

// Clear removes the session. Clearing an empty store succeeds.
func (s *Store) Clear() error {
	if err := s.backend.Delete(s.key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Credential implements CredentialSource
func (s *Store) Credential() (string, bool) {
	sess, ok := s.Load()
	if !ok {
		return "", false
	}
	return sess.Credential, true
}

func (r record) complete() bool {
	return r.AccessToken != "" && r.Email != "" && r.Role.Valid()
}
