package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eshaffer321/extrachill-go/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleHTTPError_ServerError_IncludesResponseBody(t *testing.T) {
	transport := &RESTTransport{}

	tests := []struct {
		name          string
		statusCode    int
		responseBody  []byte
		expectedInMsg string
	}{
		{
			name:          "525 SSL Handshake Failed with HTML body",
			statusCode:    525,
			responseBody:  []byte(`<html><body>SSL Handshake Failed</body></html>`),
			expectedInMsg: "525",
		},
		{
			name:          "500 with JSON error message",
			statusCode:    500,
			responseBody:  []byte(`{"code": "db_error", "message": "Database connection failed"}`),
			expectedInMsg: "Database connection failed",
		},
		{
			name:          "502 Bad Gateway with empty body",
			statusCode:    502,
			responseBody:  []byte{},
			expectedInMsg: "Bad Gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := transport.handleHTTPError(tt.statusCode, tt.responseBody)

			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedInMsg)

			var apiErr *types.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.statusCode, apiErr.StatusCode)
		})
	}
}

func TestHandleHTTPError_ClientErrors(t *testing.T) {
	transport := &RESTTransport{}

	t.Run("401 wraps ErrUnauthorized", func(t *testing.T) {
		err := transport.handleHTTPError(401, []byte(`{"code":"invalid_token","message":"Token expired","data":{"status":401}}`))
		assert.ErrorIs(t, err, types.ErrUnauthorized)
		assert.Equal(t, "Token expired", err.Error())
	})

	t.Run("400 keeps server message and data", func(t *testing.T) {
		err := transport.handleHTTPError(400, []byte(`{"code":"invalid_credentials","message":"Wrong password","data":{"status":400}}`))
		var apiErr *types.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "invalid_credentials", apiErr.Code)
		assert.Equal(t, "Wrong password", apiErr.Message)
		require.NotNil(t, apiErr.Data)
		assert.Equal(t, 400, apiErr.Data.Status)
		assert.False(t, errors.Is(err, types.ErrUnauthorized))
	})

	t.Run("non-JSON 404 falls back to status", func(t *testing.T) {
		err := transport.handleHTTPError(404, []byte(`not found`))
		assert.Equal(t, "HTTP error: 404", err.Error())
	})
}

func TestRESTTransport_Do(t *testing.T) {
	var gotAuth, gotClient, gotMethod string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotClient = r.Header.Get(types.ClientHeader)
		gotMethod = r.Method
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"handoff_url":"https://extrachill.com/h/abc"}`))
	}))
	defer srv.Close()

	tr := NewRESTTransport(&Options{BaseURL: srv.URL})

	var out struct {
		HandoffURL string `json:"handoff_url"`
	}
	err := tr.Do(context.Background(), &Request{
		Method:  http.MethodPost,
		Path:    "/auth/browser-handoff",
		Body:    map[string]string{"redirect_url": "https://extrachill.com"},
		Token:   "access-1",
		Headers: map[string]string{types.ClientHeader: "app"},
	}, &out)

	require.NoError(t, err)
	assert.Equal(t, "https://extrachill.com/h/abc", out.HandoffURL)
	assert.Equal(t, "Bearer access-1", gotAuth)
	assert.Equal(t, "app", gotClient)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "https://extrachill.com", gotBody["redirect_url"])
}

func TestRESTTransport_NoTokenNoAuthHeader(t *testing.T) {
	var sawAuth atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			sawAuth.Store(true)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tr := NewRESTTransport(&Options{BaseURL: srv.URL})
	err := tr.Do(context.Background(), &Request{Path: "/config/oauth"}, nil)

	require.NoError(t, err)
	assert.False(t, sawAuth.Load())
}

func TestRESTTransport_RetriesServerErrorsButNotUnauthorized(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if r.URL.Path == "/auth/me" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tr := NewRESTTransport(&Options{
		BaseURL: srv.URL,
		RetryConfig: &types.RetryConfig{
			MaxRetries: 3,
			RetryWait:  time.Millisecond,
			MaxWait:    5 * time.Millisecond,
		},
	})

	err := tr.Do(context.Background(), &Request{Path: "/activity"}, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())

	calls.Store(0)
	err = tr.Do(context.Background(), &Request{Path: "/auth/me", Token: "t"}, nil)
	assert.ErrorIs(t, err, types.ErrUnauthorized)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRESTTransport_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	tr := NewRESTTransport(&Options{BaseURL: url})
	err := tr.Do(context.Background(), &Request{Path: "/auth/me"}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}
