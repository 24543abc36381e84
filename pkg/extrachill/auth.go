package extrachill

import (
	"context"
	"net/http"

	"github.com/eshaffer321/extrachill-go/pkg/extrachill/identity"
	"github.com/pkg/errors"
)

// authService implements the AuthService interface
type authService struct {
	client *Client
}

// Login performs password authentication
func (s *authService) Login(ctx context.Context, identifier, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := s.client.session.Login(ctx, identifier, password, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and signs it in
func (s *authService) Register(ctx context.Context, email, password, passwordConfirm string) (*RegisterResponse, error) {
	var resp RegisterResponse
	if err := s.client.session.Register(ctx, email, password, passwordConfirm, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LoginWithIdentity asks the identity provider for an ID token using the
// server's OAuth client ids, then exchanges it for a session
func (s *authService) LoginWithIdentity(ctx context.Context) (*LoginResponse, error) {
	provider := s.client.options.IdentityProvider
	if provider == nil {
		return nil, ErrIdentityUnavailable
	}

	cfg, err := s.client.Config.OAuth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get OAuth config")
	}
	if !cfg.Google.Enabled {
		return nil, ErrIdentityUnavailable
	}

	idToken, err := provider.IDToken(ctx, identity.ClientConfig{
		WebClientID: cfg.Google.WebClientID,
		IOSClientID: cfg.Google.IOSClientID,
	})
	if err != nil {
		return nil, err
	}
	if idToken == "" {
		return nil, errors.New("no ID token received from identity provider")
	}

	return s.LoginWithIDToken(ctx, idToken)
}

// LoginWithIDToken exchanges an external ID token for a session
func (s *authService) LoginWithIDToken(ctx context.Context, idToken string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := s.client.session.LoginWithIDToken(ctx, idToken, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout revokes the session and clears credentials
func (s *authService) Logout(ctx context.Context) error {
	return s.client.session.Logout(ctx)
}

// Me returns the current user
func (s *authService) Me(ctx context.Context) (*Me, error) {
	var me Me
	if err := s.client.authenticated(ctx, http.MethodGet, "/auth/me", nil, &me); err != nil {
		return nil, errors.Wrap(err, "failed to get current user")
	}
	return &me, nil
}

// BrowserHandoff creates a one-time URL that logs the browser in and lands on redirectURL
func (s *authService) BrowserHandoff(ctx context.Context, redirectURL string) (string, error) {
	if redirectURL == "" {
		return "", errors.New("redirect URL is required")
	}

	var result struct {
		HandoffURL string `json:"handoff_url"`
	}

	body := map[string]interface{}{"redirect_url": redirectURL}
	if err := s.client.authenticated(ctx, http.MethodPost, "/auth/browser-handoff", body, &result); err != nil {
		return "", errors.Wrap(err, "failed to create browser handoff")
	}

	return result.HandoffURL, nil
}

// HasCredentials reports whether a credential pair is held
func (s *authService) HasCredentials() bool {
	return s.client.session.HasCredentials()
}

// Session returns a snapshot of the session state
func (s *authService) Session() *Session {
	creds := s.client.session.Credentials()
	return &Session{
		HasCredentials:  creds.Complete(),
		AccessExpiresAt: creds.AccessExpiresAt,
		Expired:         s.client.session.SessionExpired(),
	}
}

// SessionExpired reports whether the last session ended in an auth failure
func (s *authService) SessionExpired() bool {
	return s.client.session.SessionExpired()
}

// ClearAuthFailureFlag resets the session-expired flag
func (s *authService) ClearAuthFailureFlag() {
	s.client.session.ClearAuthFailureFlag()
}
