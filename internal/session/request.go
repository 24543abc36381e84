package session

import (
	"context"
	"errors"

	"github.com/eshaffer321/extrachill-go/internal/metrics"
	"github.com/eshaffer321/extrachill-go/internal/transport"
	"github.com/eshaffer321/extrachill-go/internal/types"
)

// AuthenticatedRequest sends method endpoint with body and decodes the
// response into out. See Do.
func (m *Manager) AuthenticatedRequest(ctx context.Context, method, endpoint string, body, out interface{}) error {
	return m.Do(ctx, &transport.Request{Method: method, Path: endpoint, Body: body}, out)
}

// Do sends req with the current access token.
//
// Without credentials it fails with ErrSessionMissing and sends nothing. An
// access token inside the refresh buffer is refreshed first. A 401 triggers one
// refresh and one resend; a second 401 is returned as *types.RequestFailed.
// A failed refresh ends the session and returns ErrSessionExpired.
func (m *Manager) Do(ctx context.Context, req *transport.Request, out interface{}) error {
	creds := m.Credentials()
	if !creds.Complete() {
		m.metrics.Request(metrics.RequestSessionMissing)
		return types.ErrSessionMissing
	}

	if m.expiringSoon(creds) {
		if m.logger != nil {
			m.logger.Debug("Access token expiring, refreshing before request", "path", req.Path)
		}
		if attempted, err := m.refresh(ctx, creds.AccessToken); err != nil {
			return m.refreshFailed(ctx, attempted, err)
		}
	}

	access, err := m.currentAccess()
	if err != nil {
		return err
	}

	err = m.send(ctx, req, access, out)
	if err == nil {
		m.metrics.Request(metrics.RequestOK)
		return nil
	}
	if !errors.Is(err, types.ErrUnauthorized) {
		m.metrics.Request(metrics.RequestFailed)
		return types.NewRequestFailed(err)
	}

	if m.logger != nil {
		m.logger.Debug("Request unauthorized, refreshing and retrying once", "path", req.Path)
	}

	if attempted, err := m.refresh(ctx, access); err != nil {
		return m.refreshFailed(ctx, attempted, err)
	}

	access, err = m.currentAccess()
	if err != nil {
		return err
	}

	// Single retry. Its outcome, 401 included, goes straight back to the caller.
	if err := m.send(ctx, req, access, out); err != nil {
		m.metrics.Request(metrics.RequestFailed)
		return types.NewRequestFailed(err)
	}

	m.metrics.Request(metrics.RequestRetried)
	return nil
}

// Unauthenticated sends a request without credentials or the token protocol
func (m *Manager) Unauthenticated(ctx context.Context, method, endpoint string, body, out interface{}) error {
	err := m.transport.Do(ctx, &transport.Request{Method: method, Path: endpoint, Body: body}, out)
	if err != nil {
		return types.NewRequestFailed(err)
	}
	return nil
}

func (m *Manager) send(ctx context.Context, req *transport.Request, access string, out interface{}) error {
	r := *req
	r.Token = access
	return m.transport.Do(ctx, &r, out)
}

// currentAccess returns the access token after a refresh. Credentials can be
// gone if another request ended the session or the user logged out meanwhile.
func (m *Manager) currentAccess() (string, error) {
	creds := m.Credentials()
	if creds.Complete() {
		return creds.AccessToken, nil
	}
	if m.SessionExpired() {
		m.metrics.Request(metrics.RequestSessionExpired)
		return "", types.ErrSessionExpired
	}
	m.metrics.Request(metrics.RequestSessionMissing)
	return "", types.ErrSessionMissing
}

// refreshFailed ends the session unless the caller merely gave up waiting
func (m *Manager) refreshFailed(ctx context.Context, observedAccess string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		m.metrics.Request(metrics.RequestFailed)
		return types.NewRequestFailed(err)
	}

	m.failAuth(ctx, observedAccess, err)
	m.metrics.Request(metrics.RequestSessionExpired)
	return types.ErrSessionExpired
}
