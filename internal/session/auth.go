package session

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/eshaffer321/extrachill-go/internal/transport"
	"github.com/eshaffer321/extrachill-go/internal/types"
	"github.com/pkg/errors"
)

const (
	loginEndpoint    = "/auth/login"
	registerEndpoint = "/auth/register"
	googleEndpoint   = "/auth/google"
	refreshEndpoint  = "/auth/refresh"
	logoutEndpoint   = "/auth/logout"
)

// Login authenticates with an identifier (username or email) and password.
// The decoded response is written to out.
func (m *Manager) Login(ctx context.Context, identifier, password string, out interface{}) error {
	deviceID, err := m.device.ID(ctx)
	if err != nil {
		return err
	}

	body := map[string]interface{}{
		"identifier": identifier,
		"password":   password,
		"device_id":  deviceID,
	}

	if err := m.establish(ctx, loginEndpoint, body, nil, out); err != nil {
		return err
	}

	if m.logger != nil {
		m.logger.Info("Login successful", "identifier", identifier)
	}
	return nil
}

// Register creates an account and signs it in
func (m *Manager) Register(ctx context.Context, email, password, passwordConfirm string, out interface{}) error {
	deviceID, err := m.device.ID(ctx)
	if err != nil {
		return err
	}

	body := map[string]interface{}{
		"email":               email,
		"password":            password,
		"password_confirm":    passwordConfirm,
		"device_id":           deviceID,
		"registration_source": types.RegistrationSource,
		"registration_method": "standard",
	}
	headers := map[string]string{types.ClientHeader: "app"}

	if err := m.establish(ctx, registerEndpoint, body, headers, out); err != nil {
		return err
	}

	if m.logger != nil {
		m.logger.Info("Registration successful", "email", email)
	}
	return nil
}

// LoginWithIDToken exchanges an external identity token for a session
func (m *Manager) LoginWithIDToken(ctx context.Context, idToken string, out interface{}) error {
	if idToken == "" {
		return errors.New("empty identity token")
	}

	deviceID, err := m.device.ID(ctx)
	if err != nil {
		return err
	}

	body := map[string]interface{}{
		"id_token":            idToken,
		"device_id":           deviceID,
		"registration_source": types.RegistrationSource,
		"registration_method": "google",
	}

	if err := m.establish(ctx, googleEndpoint, body, nil, out); err != nil {
		return err
	}

	if m.logger != nil {
		m.logger.Info("External identity login successful")
	}
	return nil
}

// Logout tells the server to revoke this device's session, ignoring any error
// from that call, then clears the local credential pair.
func (m *Manager) Logout(ctx context.Context) error {
	creds := m.Credentials()

	if creds.AccessToken != "" {
		if err := m.revoke(ctx, creds.AccessToken); err != nil && m.logger != nil {
			m.logger.Debug("Ignoring logout revoke error", "error", err)
		}
	}

	if err := m.clear(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.sessionExpired = false
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("Logged out")
	}
	return nil
}

func (m *Manager) revoke(ctx context.Context, accessToken string) error {
	deviceID, err := m.device.ID(ctx)
	if err != nil {
		return err
	}

	return m.transport.Do(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   logoutEndpoint,
		Body:   map[string]interface{}{"device_id": deviceID},
		Token:  accessToken,
	}, nil)
}

// establish performs an unauthenticated token-issuing call and installs the
// returned pair before decoding the payload into out
func (m *Manager) establish(ctx context.Context, path string, body interface{}, headers map[string]string, out interface{}) error {
	var raw json.RawMessage
	err := m.transport.Do(ctx, &transport.Request{
		Method:  http.MethodPost,
		Path:    path,
		Body:    body,
		Headers: headers,
	}, &raw)
	if err != nil {
		return types.NewRequestFailed(err)
	}

	var tok tokenResponse
	if err := json.Unmarshal(raw, &tok); err != nil {
		return types.NewRequestFailed(errors.Wrap(err, "failed to parse token response"))
	}

	if err := m.install(ctx, tok.credentials()); err != nil {
		return types.NewRequestFailed(err)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return types.NewRequestFailed(errors.Wrap(err, "failed to parse response"))
		}
	}

	return nil
}
