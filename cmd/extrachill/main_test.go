package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/eshaffer321/extrachill-go/internal/fakeapi"
	"github.com/eshaffer321/extrachill-go/pkg/extrachill"
	"github.com/eshaffer321/extrachill-go/pkg/extrachill/identity"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, srv *fakeapi.Server) *Config {
	t.Helper()
	return &Config{
		BaseURL:     srv.URL,
		SessionFile: filepath.Join(t.TempDir(), "session.json"),
	}
}

func runCmd(t *testing.T, config *Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), config, args, zerolog.New(io.Discard), &out)
	return out.String(), err
}

func TestRun_LoginMeLogout(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	config := testConfig(t, srv)

	out, err := runCmd(t, config, "login", "jamie", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "Signed in as jamie\n", out)

	out, err = runCmd(t, config, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, `"hasCredentials": true`)

	out, err = runCmd(t, config, "me")
	require.NoError(t, err)
	assert.Contains(t, out, `"email": "jamie@example.com"`)

	out, err = runCmd(t, config, "logout")
	require.NoError(t, err)
	assert.Equal(t, "Signed out.\n", out)

	_, err = runCmd(t, config, "me")
	assert.ErrorIs(t, err, extrachill.ErrSessionMissing)
}

func TestRun_Activity(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	config := testConfig(t, srv)

	_, err := runCmd(t, config, "login", "jamie", "hunter2")
	require.NoError(t, err)

	out, err := runCmd(t, config, "activity", "3", "2")
	require.NoError(t, err)
	assert.Equal(t, "3\t2025-06-01 10:00\tPost 3 published\n2\t2025-06-01 10:00\tPost 2 published\nnext cursor: 1\n", out)

	_, err = runCmd(t, config, "activity", "3", "lots")
	assert.Error(t, err)
}

func TestRun_Google(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	config := testConfig(t, srv)

	out, err := runCmd(t, config, "google", "google-id-token")
	require.NoError(t, err)
	assert.Equal(t, "Signed in as jamie\n", out)

	_, err = runCmd(t, config, "google")
	assert.Error(t, err)
}

func TestRun_GoogleVerified(t *testing.T) {
	tests := []struct {
		name     string
		audience string
		wantErr  error
	}{
		{"token for the app", "web-client.apps.googleusercontent.com", nil},
		{"token for another client", "someone-else.apps.googleusercontent.com", identity.ErrAudienceMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fakeapi.New()
			defer srv.Close()

			tokeninfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"audience":   tt.audience,
					"expires_in": 3599,
				})
			}))
			defer tokeninfo.Close()

			config := testConfig(t, srv)
			config.VerifyGoogle = true
			config.GoogleAPIEndpoint = tokeninfo.URL + "/"

			out, err := runCmd(t, config, "google", "google-id-token")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 0, srv.CallCount("/auth/google"), "rejected tokens never reach the API")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Signed in as jamie\n", out)
		})
	}
}

func TestGoogleProvider(t *testing.T) {
	assert.IsType(t, identity.Static(""), googleProvider(&Config{}, "tok"))
	assert.IsType(t, &identity.GoogleVerifier{}, googleProvider(&Config{VerifyGoogle: true}, "tok"))
}

func TestRun_Errors(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	config := testConfig(t, srv)

	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"dance"}},
		{"login without identifier", []string{"login"}},
		{"handoff without url", []string{"handoff"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("EXTRACHILL_PASSWORD", "")
			_, err := runCmd(t, config, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestParseFlags(t *testing.T) {
	t.Setenv("EXTRACHILL_BASE_URL", "https://staging.example.com/v1")

	config, args := parseFlags([]string{"-log-level", "debug", "me"})
	assert.Equal(t, "https://staging.example.com/v1", config.BaseURL)
	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, []string{"me"}, args)
	assert.False(t, config.VerifyGoogle)

	config, args = parseFlags([]string{"-verify-google", "google", "tok"})
	assert.True(t, config.VerifyGoogle)
	assert.Equal(t, []string{"google", "tok"}, args)
}

func TestNewLogger_BadLevelFallsBackToWarn(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, newLogger("loud", io.Discard).GetLevel())
	assert.Equal(t, zerolog.DebugLevel, newLogger("debug", io.Discard).GetLevel())
}
