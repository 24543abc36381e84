package main

import (
	"context"
	"testing"

	"github.com/eshaffer321/extrachill-go/internal/fakeapi"
	"github.com/eshaffer321/extrachill-go/pkg/extrachill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedInTools(t *testing.T) (*extrachillTools, *fakeapi.Server) {
	t.Helper()

	srv := fakeapi.New()
	t.Cleanup(srv.Close)

	client, err := extrachill.NewClient(&extrachill.ClientOptions{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Auth.Login(context.Background(), "jamie", "hunter2")
	require.NoError(t, err)

	return &extrachillTools{client: client}, srv
}

func TestGetMeTool(t *testing.T) {
	tools, _ := signedInTools(t)

	callResult, output, err := tools.GetMe(context.Background(), nil, GetMeInput{})
	require.NoError(t, err)
	assert.Nil(t, callResult)
	assert.Equal(t, "jamie", output.Username)
	assert.Equal(t, "jamie@example.com", output.Email)
}

func TestGetActivityTool(t *testing.T) {
	tools, _ := signedInTools(t)

	_, output, err := tools.GetActivity(context.Background(), nil, GetActivityInput{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, output.Count)
	assert.Equal(t, 100, output.Items[0].ID)
	assert.Equal(t, "Post 100", output.Items[0].Title)
	assert.Equal(t, 95, output.NextCursor)

	_, older, err := tools.GetActivity(context.Background(), nil, GetActivityInput{Cursor: output.NextCursor, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 95, older.Items[0].ID)
}

func TestGetOnboardingStatusTool(t *testing.T) {
	tools, _ := signedInTools(t)

	_, output, err := tools.GetOnboardingStatus(context.Background(), nil, GetOnboardingStatusInput{})
	require.NoError(t, err)
	assert.True(t, output.Completed)
	assert.Equal(t, "jamie", output.Username)
}

func TestTools_SignedOut(t *testing.T) {
	tools, _ := signedInTools(t)
	require.NoError(t, tools.client.Auth.Logout(context.Background()))

	_, _, err := tools.GetMe(context.Background(), nil, GetMeInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extrachill login")
}
