// Package session owns the credential pair and the token protocol that keeps
// authenticated requests valid: proactive refresh inside the refresh buffer,
// one reactive refresh-and-retry on 401, a single in-flight refresh shared by
// all waiters, and a single-fire auth-failure signal.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/eshaffer321/extrachill-go/internal/device"
	"github.com/eshaffer321/extrachill-go/internal/metrics"
	"github.com/eshaffer321/extrachill-go/internal/storage"
	"github.com/eshaffer321/extrachill-go/internal/transport"
	"github.com/eshaffer321/extrachill-go/internal/types"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// Transport sends a single REST request
type Transport interface {
	Do(ctx context.Context, req *transport.Request, result interface{}) error
}

// Options configures a Manager
type Options struct {
	Transport     Transport
	Store         storage.Store
	Logger        types.Logger
	Metrics       *metrics.Recorder
	RefreshBuffer time.Duration
	Now           func() time.Time
}

// Manager holds the in-memory session state
type Manager struct {
	transport Transport
	store     storage.Store
	device    *device.Source
	logger    types.Logger
	metrics   *metrics.Recorder
	buffer    time.Duration
	now       func() time.Time

	// persistMu orders store writes with the in-memory swap that follows them
	persistMu sync.Mutex

	mu             sync.RWMutex
	creds          types.Credentials
	onAuthFailure  func()
	sessionExpired bool

	refreshGroup singleflight.Group
}

// NewManager creates a session manager
func NewManager(opts *Options) *Manager {
	if opts == nil {
		opts = &Options{}
	}

	store := opts.Store
	if store == nil {
		store = storage.NewMemoryStore()
	}

	buffer := opts.RefreshBuffer
	if buffer <= 0 {
		buffer = types.RefreshBuffer
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Manager{
		transport: opts.Transport,
		store:     store,
		device:    device.NewSource(store),
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		buffer:    buffer,
		now:       now,
	}
}

// Initialize loads persisted credentials and records the auth-failure callback
func (m *Manager) Initialize(ctx context.Context, onAuthFailure func()) error {
	m.mu.Lock()
	m.onAuthFailure = onAuthFailure
	m.mu.Unlock()

	creds, ok, err := storage.LoadCredentials(ctx, m.store)
	if err != nil {
		return errors.Wrap(err, "failed to load credentials")
	}

	m.mu.Lock()
	if ok {
		m.creds = creds
	} else {
		m.creds = types.Credentials{}
	}
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Debug("Session initialized", "hasCredentials", ok, "expiresAt", creds.AccessExpiresAt)
	}

	return nil
}

// HasCredentials reports whether both tokens are held
func (m *Manager) HasCredentials() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.Complete()
}

// Credentials returns a copy of the current credential pair
func (m *Manager) Credentials() types.Credentials {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds
}

// SessionExpired reports whether the last session ended in an auth failure
func (m *Manager) SessionExpired() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionExpired
}

// ClearAuthFailureFlag resets the session-expired flag. Tokens are untouched.
func (m *Manager) ClearAuthFailureFlag() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionExpired = false
}

// DeviceID returns the per-install device identifier
func (m *Manager) DeviceID(ctx context.Context) (string, error) {
	return m.device.ID(ctx)
}

// expiringSoon is true when the expiry is unknown or inside the refresh buffer
func (m *Manager) expiringSoon(creds types.Credentials) bool {
	if creds.AccessExpiresAt.IsZero() {
		return true
	}
	return !m.now().Before(creds.AccessExpiresAt.Add(-m.buffer))
}

// install persists creds and then swaps them into memory. On a store error the
// previous pair is written back and memory is left as it was.
func (m *Manager) install(ctx context.Context, creds types.Credentials) error {
	if !creds.Complete() {
		return errors.New("incomplete credentials in response")
	}

	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	if err := storage.SaveCredentials(ctx, m.store, creds); err != nil {
		prev := m.Credentials()
		if prev.Complete() {
			_ = storage.SaveCredentials(ctx, m.store, prev)
		} else {
			_ = storage.ClearCredentials(ctx, m.store)
		}
		return errors.Wrap(err, "failed to persist credentials")
	}

	m.mu.Lock()
	m.creds = creds
	m.sessionExpired = false
	m.mu.Unlock()

	return nil
}

// clear drops credentials from memory and store
func (m *Manager) clear(ctx context.Context) error {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.Lock()
	m.creds = types.Credentials{}
	m.mu.Unlock()

	if err := storage.ClearCredentials(ctx, m.store); err != nil {
		return errors.Wrap(err, "failed to clear credentials")
	}
	return nil
}
