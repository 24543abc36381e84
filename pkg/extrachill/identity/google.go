package identity

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	oauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// GoogleVerifier checks tokens from Next against Google's tokeninfo endpoint
// before they are sent to the server, rejecting tokens minted for a client id
// the server does not use.
type GoogleVerifier struct {
	Next Provider

	// HTTPClient defaults to http.DefaultClient
	HTTPClient *http.Client

	// Endpoint overrides the Google API base URL
	Endpoint string
}

// IDToken obtains a token from Next and verifies its audience
func (g *GoogleVerifier) IDToken(ctx context.Context, cfg ClientConfig) (string, error) {
	if g.Next == nil {
		return "", ErrUnavailable
	}

	token, err := g.Next.IDToken(ctx, cfg)
	if err != nil {
		return "", err
	}

	httpClient := g.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if g.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.Endpoint))
	}

	svc, err := oauth2.NewService(ctx, opts...)
	if err != nil {
		return "", errors.Wrap(err, "failed to create tokeninfo client")
	}

	info, err := svc.Tokeninfo().IdToken(token).Context(ctx).Do()
	if err != nil {
		return "", errors.Wrap(err, "failed to verify identity token")
	}

	if info.Audience == "" || (info.Audience != cfg.WebClientID && info.Audience != cfg.IOSClientID) {
		return "", ErrAudienceMismatch
	}

	return token, nil
}
