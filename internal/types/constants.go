package types

import (
	"errors"
	"time"
)

const (
	// DefaultBaseURL is the default Extra Chill REST API base URL
	DefaultBaseURL = "https://extrachill.com/wp-json/extrachill/v1"

	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second

	// RefreshBuffer is how long before expiry an access token counts as expiring
	RefreshBuffer = 60 * time.Second

	// UserAgent is the user agent string
	UserAgent = "extrachill-go/1.0.0"

	// ClientHeader identifies app registrations to the server
	ClientHeader = "ExtraChill-Client"

	// RegistrationSource tags accounts created through this client
	RegistrationSource = "extrachill-app"
)

// Common errors
var (
	// ErrSessionMissing is returned when no credentials are held
	ErrSessionMissing = errors.New("session missing")

	// ErrSessionExpired is returned when credentials existed but could not be refreshed
	ErrSessionExpired = errors.New("session expired")

	// ErrUnauthorized is returned by the transport for a 401 response
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRefreshFailed is returned when the refresh call is rejected or fails
	ErrRefreshFailed = errors.New("token refresh failed")
)
