package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/eshaffer321/extrachill-go/pkg/extrachill"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// extrachillTools holds the Extra Chill client and implements all tool handlers
type extrachillTools struct {
	client *extrachill.Client
}

// toolError turns session errors into an instruction the user can act on
func toolError(action string, err error) error {
	if extrachill.IsAuthError(err) {
		return errors.New("not signed in to Extra Chill, run `extrachill login` and restart the server")
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// GetMe tool - retrieves the signed-in profile
type GetMeInput struct {
	// No input parameters needed
}

type GetMeOutput struct {
	ID          int    `json:"id" jsonschema:"User ID"`
	Username    string `json:"username" jsonschema:"Username"`
	DisplayName string `json:"displayName" jsonschema:"Display name"`
	Email       string `json:"email" jsonschema:"Account email"`
	ProfileURL  string `json:"profileUrl,omitempty" jsonschema:"Community profile URL"`
}

func (t *extrachillTools) GetMe(ctx context.Context, req *mcp.CallToolRequest, input GetMeInput) (*mcp.CallToolResult, GetMeOutput, error) {
	me, err := t.client.Auth.Me(ctx)
	if err != nil {
		return nil, GetMeOutput{}, toolError("fetch profile", err)
	}

	return nil, GetMeOutput{
		ID:          me.ID,
		Username:    me.Username,
		DisplayName: me.DisplayName,
		Email:       me.Email,
		ProfileURL:  me.ProfileURL,
	}, nil
}

// GetActivity tool - reads a page of the activity feed
type GetActivityInput struct {
	Cursor int `json:"cursor,omitempty" jsonschema:"Cursor from a previous page (optional, omit for newest)"`
	Limit  int `json:"limit,omitempty" jsonschema:"Maximum number of items to return (default: 20)"`
}

type ActivityEntry struct {
	ID        int       `json:"id" jsonschema:"Activity ID"`
	CreatedAt time.Time `json:"createdAt" jsonschema:"When the activity happened"`
	Type      string    `json:"type" jsonschema:"Activity type (e.g. post_published)"`
	Summary   string    `json:"summary" jsonschema:"Human readable summary"`
	Title     string    `json:"title,omitempty" jsonschema:"Card title, if any"`
	Permalink string    `json:"permalink,omitempty" jsonschema:"Link to the subject, if any"`
}

type GetActivityOutput struct {
	Items      []ActivityEntry `json:"items" jsonschema:"Activity items, newest first"`
	Count      int             `json:"count" jsonschema:"Number of items returned"`
	NextCursor int             `json:"nextCursor,omitempty" jsonschema:"Cursor for the next page, absent on the last page"`
}

func (t *extrachillTools) GetActivity(ctx context.Context, req *mcp.CallToolRequest, input GetActivityInput) (*mcp.CallToolResult, GetActivityOutput, error) {
	var cursor string
	if input.Cursor > 0 {
		cursor = strconv.Itoa(input.Cursor)
	}

	page, err := t.client.Activity.List(ctx, cursor, input.Limit)
	if err != nil {
		return nil, GetActivityOutput{}, toolError("fetch activity", err)
	}

	entries := make([]ActivityEntry, 0, len(page.Items))
	for _, item := range page.Items {
		entry := ActivityEntry{
			ID:        item.ID,
			CreatedAt: item.CreatedAt,
			Type:      item.Type,
			Summary:   item.Summary,
		}

		if item.Data != nil && item.Data.Card != nil {
			entry.Title = item.Data.Card.Title
			entry.Permalink = item.Data.Card.Permalink
		}

		entries = append(entries, entry)
	}

	out := GetActivityOutput{
		Items: entries,
		Count: len(entries),
	}
	if page.NextCursor != nil {
		out.NextCursor = *page.NextCursor
	}

	return nil, out, nil
}

// GetOnboardingStatus tool - reports onboarding progress
type GetOnboardingStatusInput struct {
	// No input parameters needed
}

type GetOnboardingStatusOutput struct {
	Completed          bool   `json:"completed" jsonschema:"Whether onboarding is complete"`
	Username           string `json:"username" jsonschema:"Chosen username"`
	UserIsArtist       bool   `json:"userIsArtist" jsonschema:"Whether the user marked themselves as an artist"`
	UserIsProfessional bool   `json:"userIsProfessional" jsonschema:"Whether the user works in the music industry"`
}

func (t *extrachillTools) GetOnboardingStatus(ctx context.Context, req *mcp.CallToolRequest, input GetOnboardingStatusInput) (*mcp.CallToolResult, GetOnboardingStatusOutput, error) {
	status, err := t.client.Onboarding.Status(ctx)
	if err != nil {
		return nil, GetOnboardingStatusOutput{}, toolError("fetch onboarding status", err)
	}

	return nil, GetOnboardingStatusOutput{
		Completed:          status.Completed,
		Username:           status.Fields.Username,
		UserIsArtist:       status.Fields.UserIsArtist,
		UserIsProfessional: status.Fields.UserIsProfessional,
	}, nil
}
