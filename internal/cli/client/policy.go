package client

import (
	"context"

	"github.com/rs/zerolog"
)

// Policy decides what happens when the API answers 401 or 403. The pipeline
// only reports; anything that touches the session belongs to the policy.
type Policy interface {
	OnAuthDenied(ctx context.Context, req Request, err *APIError)
}

// PolicyFunc adapts a function to Policy
type PolicyFunc func(ctx context.Context, req Request, err *APIError)

func (f PolicyFunc) OnAuthDenied(ctx context.Context, req Request, err *APIError) {
	f(ctx, req, err)
}

// LogPolicy logs the denial and leaves the session alone
func LogPolicy(log zerolog.Logger) Policy {
	return PolicyFunc(func(_ context.Context, req Request, err *APIError) {
		log.Warn().
			Str("method", req.Method).
			Str("path", NormalizePath(req.Path)).
			Int("status", err.Status).
			Bool("authenticated", req.RequiresAuth).
			Msg("Access denied, check the role or validity of the session")
	})
}

// Policies runs each policy in order
func Policies(ps ...Policy) Policy {
	return PolicyFunc(func(ctx context.Context, req Request, err *APIError) {
		for _, p := range ps {
			if p != nil {
				p.OnAuthDenied(ctx, req, err)
			}
		}
	})
}
