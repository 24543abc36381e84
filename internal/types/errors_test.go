package types

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestNewRequestFailed(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantMsg    string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "server message is surfaced",
			err:        &APIError{Code: "existing_user", Message: "Email already registered", StatusCode: 409},
			wantMsg:    "Email already registered",
			wantStatus: 409,
			wantCode:   "existing_user",
		},
		{
			name:       "wrapped api error",
			err:        errors.Wrap(&APIError{Message: "Nope", StatusCode: 403}, "call"),
			wantMsg:    "Nope",
			wantStatus: 403,
		},
		{
			name:    "network failure is generic",
			err:     errors.New("dial tcp: connection refused"),
			wantMsg: "request failed: dial tcp: connection refused",
		},
		{
			name:       "empty api message falls back",
			err:        &APIError{StatusCode: 404},
			wantMsg:    "request failed: HTTP error: 404",
			wantStatus: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rf := NewRequestFailed(tt.err)
			assert.Equal(t, tt.wantStatus, rf.StatusCode)
			assert.Equal(t, tt.wantCode, rf.Code)
			assert.Equal(t, tt.wantMsg, rf.Error())
		})
	}
}

func TestRequestFailed_Unwraps(t *testing.T) {
	rf := NewRequestFailed(errors.Wrap(context.Canceled, "request failed"))
	assert.ErrorIs(t, rf, context.Canceled)
}
