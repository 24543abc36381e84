package extrachill

import (
	"context"
	"net/http"
	"sync"

	"github.com/pkg/errors"
)

// configService implements the ConfigService interface
type configService struct {
	client *Client

	mu    sync.Mutex
	oauth *OAuthConfig
}

// OAuth retrieves the OAuth provider configuration
func (s *configService) OAuth(ctx context.Context) (*OAuthConfig, error) {
	s.mu.Lock()
	cached := s.oauth
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	var cfg OAuthConfig
	if err := s.client.unauthenticated(ctx, http.MethodGet, "/config/oauth", nil, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to get OAuth config")
	}

	s.mu.Lock()
	s.oauth = &cfg
	s.mu.Unlock()

	return &cfg, nil
}
