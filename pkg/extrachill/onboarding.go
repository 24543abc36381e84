package extrachill

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// onboardingService implements the OnboardingService interface
type onboardingService struct {
	client *Client
}

// Status retrieves the onboarding state
func (s *onboardingService) Status(ctx context.Context) (*OnboardingStatus, error) {
	var status OnboardingStatus
	if err := s.client.authenticated(ctx, http.MethodGet, "/users/onboarding", nil, &status); err != nil {
		return nil, errors.Wrap(err, "failed to get onboarding status")
	}
	return &status, nil
}

// Submit completes onboarding
func (s *onboardingService) Submit(ctx context.Context, params *OnboardingParams) (*OnboardingResult, error) {
	if params == nil || strings.TrimSpace(params.Username) == "" {
		return nil, errors.New("username is required")
	}

	body := *params
	body.Username = strings.TrimSpace(body.Username)

	var result OnboardingResult
	if err := s.client.authenticated(ctx, http.MethodPost, "/users/onboarding", body, &result); err != nil {
		return nil, errors.Wrap(err, "failed to submit onboarding")
	}
	return &result, nil
}
