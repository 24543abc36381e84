package session

import (
	"context"
	"net/http"

	"github.com/eshaffer321/extrachill-go/internal/metrics"
	"github.com/eshaffer321/extrachill-go/internal/storage"
	"github.com/eshaffer321/extrachill-go/internal/transport"
	"github.com/eshaffer321/extrachill-go/internal/types"
	"github.com/pkg/errors"
)

// refresh makes sure the held access token is newer than staleAccess, the
// token the caller found wanting. It returns the access token whose refresh
// was attempted so a failure can be pinned to that session.
//
// Flights are keyed by the held access token: every caller needing to replace
// the same token shares one refresh call, and a caller whose stale token was
// already replaced by a fresh one never joins a flight at all.
//
// The refresh runs detached from the caller's cancellation so that one caller
// giving up does not fail it for the others; each caller still stops waiting
// when its own context ends.
func (m *Manager) refresh(ctx context.Context, staleAccess string) (string, error) {
	creds := m.Credentials()
	if !creds.Complete() {
		m.metrics.Refresh(metrics.RefreshFailure)
		return staleAccess, errors.Wrap(types.ErrRefreshFailed, "no refresh token held")
	}

	if creds.AccessToken != staleAccess && !m.expiringSoon(creds) {
		m.metrics.Refresh(metrics.RefreshReused)
		return creds.AccessToken, nil
	}

	held := creds.AccessToken
	ch := m.refreshGroup.DoChan(held, func() (interface{}, error) {
		return nil, m.executeRefresh(context.WithoutCancel(ctx), held)
	})

	select {
	case res := <-ch:
		return held, res.Err
	case <-ctx.Done():
		return held, ctx.Err()
	}
}

// executeRefresh spends the refresh token paired with heldAccess. If that pair
// was replaced while the flight was being set up, the newer pair stands and no
// call is made.
func (m *Manager) executeRefresh(ctx context.Context, heldAccess string) error {
	creds := m.Credentials()
	if !creds.Complete() {
		m.metrics.Refresh(metrics.RefreshFailure)
		return errors.Wrap(types.ErrRefreshFailed, "no refresh token held")
	}

	if creds.AccessToken != heldAccess {
		m.metrics.Refresh(metrics.RefreshReused)
		return nil
	}

	deviceID, err := m.device.ID(ctx)
	if err != nil {
		m.metrics.Refresh(metrics.RefreshFailure)
		return errors.Wrap(err, "token refresh failed")
	}

	var tok tokenResponse
	err = m.transport.Do(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   refreshEndpoint,
		Body: map[string]interface{}{
			"refresh_token": creds.RefreshToken,
			"device_id":     deviceID,
		},
	}, &tok)
	if err != nil {
		m.metrics.Refresh(metrics.RefreshFailure)
		if m.logger != nil {
			m.logger.Warn("Token refresh failed", "error", err)
		}
		return errors.Wrap(err, "token refresh failed")
	}

	if err := m.install(ctx, tok.credentials()); err != nil {
		m.metrics.Refresh(metrics.RefreshFailure)
		return errors.Wrap(err, "token refresh failed")
	}

	m.metrics.Refresh(metrics.RefreshSuccess)
	if m.logger != nil {
		m.logger.Debug("Token refreshed", "expiresAt", m.Credentials().AccessExpiresAt)
	}
	return nil
}

// failAuth ends the session once per episode. It only acts while the held
// access token is still observedAccess, so concurrent failures, a logout or a
// fresh login in between all make it a no-op.
func (m *Manager) failAuth(ctx context.Context, observedAccess string, cause error) {
	hook, fired := m.dropSession(ctx, observedAccess)
	if !fired {
		return
	}

	m.metrics.AuthFailure()
	if m.logger != nil {
		m.logger.Warn("Session expired", "cause", cause)
	}

	if hook != nil {
		hook()
	}
}

func (m *Manager) dropSession(ctx context.Context, observedAccess string) (func(), bool) {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.Lock()
	if !m.creds.Complete() || m.creds.AccessToken != observedAccess {
		m.mu.Unlock()
		return nil, false
	}
	m.creds = types.Credentials{}
	m.sessionExpired = true
	hook := m.onAuthFailure
	m.mu.Unlock()

	if err := storage.ClearCredentials(ctx, m.store); err != nil && m.logger != nil {
		m.logger.Error("Failed to clear credentials after auth failure", "error", err)
	}

	return hook, true
}
