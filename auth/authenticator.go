package auth

import (
	"context"
	"errors"
	"net/http"
)

// Authenticator validates the credentials carried in request headers.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Supports reports whether the headers carry this authenticator's
//     credential type; it never validates them.
//   - Authenticate returns one of the package sentinels (wrapped or not) for
//     rejected credentials and any other error for internal failures.
type Authenticator interface {
	Name() string
	Supports(h http.Header) bool
	Authenticate(ctx context.Context, h http.Header) (*Identity, error)
}

// Chain tries authenticators in order. The first one that supports the
// request decides it.
type Chain []Authenticator

// Name returns "chain".
func (c Chain) Name() string { return "chain" }

// Supports reports whether any member supports h.
func (c Chain) Supports(h http.Header) bool {
	for _, a := range c {
		if a.Supports(h) {
			return true
		}
	}
	return false
}

// Authenticate delegates to the first member that supports h. It returns
// ErrMissingCredentials when none does.
func (c Chain) Authenticate(ctx context.Context, h http.Header) (*Identity, error) {
	for _, a := range c {
		if a.Supports(h) {
			return a.Authenticate(ctx, h)
		}
	}
	return nil, ErrMissingCredentials
}

// IsRejection reports whether err is a credential rejection rather than an
// internal failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrMissingCredentials) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenMalformed)
}

var _ Authenticator = Chain(nil)
