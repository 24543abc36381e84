package session

import (
	"strconv"
	"strings"
	"time"

	"github.com/eshaffer321/extrachill-go/internal/types"
	"github.com/golang-jwt/jwt/v5"
)

// tokenResponse is the token part shared by login, register, external login
// and refresh responses
type tokenResponse struct {
	AccessToken     string `json:"access_token"`
	AccessExpiresAt string `json:"access_expires_at"`
	RefreshToken    string `json:"refresh_token"`
}

func (t tokenResponse) credentials() types.Credentials {
	return types.Credentials{
		AccessToken:     t.AccessToken,
		AccessExpiresAt: parseExpiry(t.AccessExpiresAt, t.AccessToken),
		RefreshToken:    t.RefreshToken,
	}
}

var expiryLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseExpiry normalizes the server timestamp to whole epoch seconds. When the
// timestamp is missing or unreadable the access token's exp claim is used.
// Zero means unknown.
func parseExpiry(raw, accessToken string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		if secs, err := strconv.ParseInt(raw, 10, 64); err == nil && secs > 0 {
			return time.Unix(secs, 0)
		}
		for _, layout := range expiryLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return time.Unix(t.Unix(), 0)
			}
		}
	}

	if accessToken == "" {
		return time.Time{}
	}

	// Signature is the server's business; only the claim is read here
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return time.Unix(claims.ExpiresAt.Unix(), 0)
}
