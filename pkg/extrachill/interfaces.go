package extrachill

import (
	"context"
)

// AuthService handles sign-in, sign-out and the current session
type AuthService interface {
	// Login signs in with a username or email and password
	Login(ctx context.Context, identifier, password string) (*LoginResponse, error)

	// Register creates an account and signs it in
	Register(ctx context.Context, email, password, passwordConfirm string) (*RegisterResponse, error)

	// LoginWithIdentity signs in with a token from the configured identity provider
	LoginWithIdentity(ctx context.Context) (*LoginResponse, error)

	// LoginWithIDToken signs in with an already obtained external ID token
	LoginWithIDToken(ctx context.Context, idToken string) (*LoginResponse, error)

	// Logout revokes the device session on a best-effort basis and clears credentials
	Logout(ctx context.Context) error

	// Me returns the signed-in user's profile
	Me(ctx context.Context) (*Me, error)

	// BrowserHandoff returns a one-time URL that signs the browser in
	BrowserHandoff(ctx context.Context, redirectURL string) (string, error)

	// HasCredentials reports whether a credential pair is held, without network
	HasCredentials() bool

	// Session returns a read-only view of the session state
	Session() *Session

	// SessionExpired reports whether the last session ended in an auth failure
	SessionExpired() bool

	// ClearAuthFailureFlag resets the session-expired flag
	ClearAuthFailureFlag()
}

// ActivityService reads the activity feed
type ActivityService interface {
	// List returns a page of activity. Empty cursor starts at the newest item.
	List(ctx context.Context, cursor string, limit int) (*ActivityPage, error)
}

// OnboardingService handles post-registration onboarding
type OnboardingService interface {
	// Status returns the onboarding state
	Status(ctx context.Context) (*OnboardingStatus, error)

	// Submit completes onboarding
	Submit(ctx context.Context, params *OnboardingParams) (*OnboardingResult, error)
}

// ConfigService reads public server configuration
type ConfigService interface {
	// OAuth returns the sign-in provider configuration. Successful results are cached.
	OAuth(ctx context.Context) (*OAuthConfig, error)
}

// OnboardingParams are the onboarding choices
type OnboardingParams struct {
	Username           string `json:"username"`
	UserIsArtist       bool   `json:"user_is_artist"`
	UserIsProfessional bool   `json:"user_is_professional"`
}
