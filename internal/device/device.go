// Package device provides the per-install identifier that scopes server
// sessions to this device.
package device

import (
	"context"
	"sync"

	"github.com/eshaffer321/extrachill-go/internal/storage"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Source returns the stored device id, generating and persisting one on first use.
type Source struct {
	store storage.Store

	mu sync.Mutex
	id string
}

// NewSource creates a device id source over store
func NewSource(store storage.Store) *Source {
	return &Source{store: store}
}

// ID returns the device id
func (s *Source) ID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id != "" {
		return s.id, nil
	}

	id, ok, err := s.store.Get(ctx, storage.KeyDeviceID)
	if err != nil {
		return "", errors.Wrap(err, "failed to read device id")
	}

	if !ok || id == "" {
		id = uuid.NewString()
		if err := s.store.Set(ctx, storage.KeyDeviceID, id); err != nil {
			return "", errors.Wrap(err, "failed to store device id")
		}
	}

	s.id = id
	return id, nil
}
