package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpiry(t *testing.T) {
	want := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
	}{
		{"rfc3339 utc", "2025-06-01T12:30:00Z"},
		{"rfc3339 offset", "2025-06-01T14:30:00+02:00"},
		{"fractional seconds", "2025-06-01T12:30:00.750Z"},
		{"no zone", "2025-06-01T12:30:00"},
		{"mysql style", "2025-06-01 12:30:00"},
		{"epoch seconds", "1748781000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseExpiry(tt.raw, "")
			assert.Equal(t, want.Unix(), got.Unix())
			assert.Equal(t, 0, got.Nanosecond())
		})
	}
}

func TestParseExpiry_FallsBackToJWTClaim(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)

	got := parseExpiry("", token)
	assert.Equal(t, exp.Unix(), got.Unix())

	got = parseExpiry("next tuesday", token)
	assert.Equal(t, exp.Unix(), got.Unix())
}

func TestParseExpiry_Unknown(t *testing.T) {
	assert.True(t, parseExpiry("", "opaque-token").IsZero())
	assert.True(t, parseExpiry("garbage", "").IsZero())

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "1"}).SignedString([]byte("k"))
	require.NoError(t, err)
	assert.True(t, parseExpiry("", noExp).IsZero())
}

func TestExpiringSoon(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mgr := NewManager(&Options{Now: func() time.Time { return now }})

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"unknown expiry", time.Time{}, true},
		{"already expired", now.Add(-time.Minute), true},
		{"inside buffer", now.Add(10 * time.Second), true},
		{"exactly at buffer edge", now.Add(60 * time.Second), true},
		{"just outside buffer", now.Add(61 * time.Second), false},
		{"far future", now.Add(time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds := mgr.Credentials()
			creds.AccessExpiresAt = tt.expiresAt
			assert.Equal(t, tt.want, mgr.expiringSoon(creds))
		})
	}
}
