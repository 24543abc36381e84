// Package identity supplies external identity tokens (Google ID tokens) for
// sign-in. The host application owns the actual sign-in UI and plugs it in as
// a Provider.
package identity

import (
	"context"
	"errors"
)

var (
	// ErrCancelled is returned when the user backed out of sign-in
	ErrCancelled = errors.New("external sign-in cancelled")

	// ErrUnavailable is returned when external sign-in cannot be used here
	ErrUnavailable = errors.New("external sign-in unavailable")

	// ErrAudienceMismatch is returned when a token was issued to another client
	ErrAudienceMismatch = errors.New("identity token issued to an unexpected client")
)

// ClientConfig carries the OAuth client ids the server expects tokens for
type ClientConfig struct {
	WebClientID string
	IOSClientID string
}

// Provider obtains an external identity token
type Provider interface {
	IDToken(ctx context.Context, cfg ClientConfig) (string, error)
}

// ProviderFunc adapts a function to Provider
type ProviderFunc func(ctx context.Context, cfg ClientConfig) (string, error)

// IDToken calls f
func (f ProviderFunc) IDToken(ctx context.Context, cfg ClientConfig) (string, error) {
	return f(ctx, cfg)
}

// Static hands out a token obtained elsewhere, e.g. passed on the command line
type Static string

// IDToken returns the token, or ErrUnavailable when it is empty
func (s Static) IDToken(context.Context, ClientConfig) (string, error) {
	if s == "" {
		return "", ErrUnavailable
	}
	return string(s), nil
}
