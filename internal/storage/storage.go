// Package storage persists credentials and the device identity as string
// key/value pairs.
package storage

import (
	"context"
	"strconv"
	"time"

	"github.com/eshaffer321/extrachill-go/internal/types"
	"github.com/pkg/errors"
)

// Storage keys
const (
	KeyAccessToken     = "access_token"
	KeyRefreshToken    = "refresh_token"
	KeyAccessExpiresAt = "access_expires_at"
	KeyDeviceID        = "device_id"
)

// Store is a secure key/value store. Get reports ok=false for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// BatchStore is implemented by stores that can apply several changes in one
// write. Either every change lands or none does.
type BatchStore interface {
	Store
	Update(ctx context.Context, set map[string]string, remove []string) error
}

// LoadCredentials reads the persisted credential pair. A pair missing either
// token is reported as absent. A missing or malformed expiry loads as zero.
func LoadCredentials(ctx context.Context, s Store) (types.Credentials, bool, error) {
	access, ok, err := s.Get(ctx, KeyAccessToken)
	if err != nil {
		return types.Credentials{}, false, errors.Wrap(err, "failed to read access token")
	}
	if !ok || access == "" {
		return types.Credentials{}, false, nil
	}

	refresh, ok, err := s.Get(ctx, KeyRefreshToken)
	if err != nil {
		return types.Credentials{}, false, errors.Wrap(err, "failed to read refresh token")
	}
	if !ok || refresh == "" {
		return types.Credentials{}, false, nil
	}

	creds := types.Credentials{AccessToken: access, RefreshToken: refresh}

	raw, ok, err := s.Get(ctx, KeyAccessExpiresAt)
	if err != nil {
		return types.Credentials{}, false, errors.Wrap(err, "failed to read access expiry")
	}
	if ok {
		if secs, perr := strconv.ParseInt(raw, 10, 64); perr == nil && secs > 0 {
			creds.AccessExpiresAt = time.Unix(secs, 0)
		}
	}

	return creds, true, nil
}

// SaveCredentials writes all three credential keys. On a BatchStore they are
// written together, so a crash never leaves tokens from two different pairs.
func SaveCredentials(ctx context.Context, s Store, creds types.Credentials) error {
	if !creds.Complete() {
		return errors.New("refusing to persist incomplete credentials")
	}

	set := map[string]string{
		KeyAccessToken:  creds.AccessToken,
		KeyRefreshToken: creds.RefreshToken,
	}
	var remove []string
	if creds.AccessExpiresAt.IsZero() {
		remove = append(remove, KeyAccessExpiresAt)
	} else {
		set[KeyAccessExpiresAt] = strconv.FormatInt(creds.AccessExpiresAt.Unix(), 10)
	}

	if bs, ok := s.(BatchStore); ok {
		return errors.Wrap(bs.Update(ctx, set, remove), "failed to store credentials")
	}

	if err := s.Set(ctx, KeyAccessToken, creds.AccessToken); err != nil {
		return errors.Wrap(err, "failed to store access token")
	}
	if err := s.Set(ctx, KeyRefreshToken, creds.RefreshToken); err != nil {
		return errors.Wrap(err, "failed to store refresh token")
	}
	if v, ok := set[KeyAccessExpiresAt]; ok {
		return errors.Wrap(s.Set(ctx, KeyAccessExpiresAt, v), "failed to store access expiry")
	}
	return errors.Wrap(s.Delete(ctx, KeyAccessExpiresAt), "failed to clear access expiry")
}

var credentialKeys = []string{KeyAccessToken, KeyRefreshToken, KeyAccessExpiresAt}

// ClearCredentials erases the credential keys. The device id is kept.
func ClearCredentials(ctx context.Context, s Store) error {
	if bs, ok := s.(BatchStore); ok {
		return errors.Wrap(bs.Update(ctx, nil, credentialKeys), "failed to clear credentials")
	}

	var firstErr error
	for _, key := range credentialKeys {
		if err := s.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "failed to delete %s", key)
		}
	}
	return firstErr
}
