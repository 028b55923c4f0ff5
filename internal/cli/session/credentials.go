package session

import "os"

// EnvAccessToken is read as the session-scoped credential fallback
const EnvAccessToken = "CAPITALHUB_ACCESS_TOKEN"

// CredentialSource yields the bearer credential for authenticated calls
type CredentialSource interface {
	Credential() (string, bool)
}

// CredentialFunc adapts a function to CredentialSource
type CredentialFunc func() (string, bool)

func (f CredentialFunc) Credential() (string, bool) {
	return f()
}

// Chain returns the first credential any source has, in order. The durable
// store goes first and the session-scoped fallback last.
func Chain(sources ...CredentialSource) CredentialSource {
	return CredentialFunc(func() (string, bool) {
		for _, src := range sources {
			if src == nil {
				continue
			}
			if token, ok := src.Credential(); ok && token != "" {
				return token, true
			}
		}
		return "", false
	})
}

// EnvCredential reads a credential exported in the current shell session
type EnvCredential struct {
	Var string
}

func (e EnvCredential) Credential() (string, bool) {
	name := e.Var
	if name == "" {
		name = EnvAccessToken
	}
	token := os.Getenv(name)
	return token, token != ""
}
