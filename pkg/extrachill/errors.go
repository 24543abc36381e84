package extrachill

import (
	"context"
	"errors"
	"net"

	"github.com/eshaffer321/extrachill-go/internal/types"
	"github.com/eshaffer321/extrachill-go/pkg/extrachill/identity"
)

var (
	// ErrSessionMissing is returned when no credentials are held. Route to login
	// without retrying.
	ErrSessionMissing = types.ErrSessionMissing

	// ErrSessionExpired is returned when credentials existed but could not be
	// refreshed. The session has been cleared.
	ErrSessionExpired = types.ErrSessionExpired

	// ErrIdentityCancelled is returned when the user backed out of external sign-in
	ErrIdentityCancelled = identity.ErrCancelled

	// ErrIdentityUnavailable is returned when external sign-in is not configured
	ErrIdentityUnavailable = identity.ErrUnavailable
)

// RequestFailed is any non-auth request failure. Message holds the server's
// message when it sent one.
type RequestFailed = types.RequestFailed

// IsAuthError checks if err means the caller must sign in again
func IsAuthError(err error) bool {
	return errors.Is(err, ErrSessionMissing) ||
		errors.Is(err, ErrSessionExpired)
}

// IsRetryable checks if err is a transient server or network failure.
// Decode errors and the caller's own cancellation are not.
func IsRetryable(err error) bool {
	var rf *RequestFailed
	if !errors.As(err, &rf) {
		return false
	}
	if rf.StatusCode != 0 {
		return rf.StatusCode >= 500 || rf.StatusCode == 429
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
