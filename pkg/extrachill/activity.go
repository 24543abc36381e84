package extrachill

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
)

// DefaultActivityLimit is the page size used when none is given
const DefaultActivityLimit = 20

// activityService implements the ActivityService interface
type activityService struct {
	client *Client
}

// List retrieves a page of the activity feed
func (s *activityService) List(ctx context.Context, cursor string, limit int) (*ActivityPage, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	params := url.Values{}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	params.Set("limit", strconv.Itoa(limit))

	var page ActivityPage
	if err := s.client.authenticated(ctx, http.MethodGet, "/activity?"+params.Encode(), nil, &page); err != nil {
		return nil, errors.Wrap(err, "failed to get activity")
	}

	return &page, nil
}
