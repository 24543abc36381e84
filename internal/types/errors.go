package types

import (
	"errors"
	"fmt"
)

// APIError is the JSON error body returned by the REST API
type APIError struct {
	Code       string        `json:"code"`
	Message    string        `json:"message"`
	Data       *APIErrorData `json:"data,omitempty"`
	StatusCode int           `json:"-"`
	Err        error         `json:"-"`
}

// APIErrorData carries the optional status echoed by the server
type APIErrorData struct {
	Status int `json:"status"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("error: %s", e.Code)
	}
	return fmt.Sprintf("HTTP error: %d", e.StatusCode)
}

// Unwrap returns the wrapped sentinel, if any
func (e *APIError) Unwrap() error {
	return e.Err
}

// RequestFailed is any non-auth failure of a request. Message carries the
// server-provided message when the server answered with a JSON error body.
type RequestFailed struct {
	Message    string
	Code       string
	StatusCode int
	Err        error
}

func (e *RequestFailed) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return "request failed: " + e.Err.Error()
	}
	return "request failed"
}

// Unwrap returns the underlying error
func (e *RequestFailed) Unwrap() error {
	return e.Err
}

// NewRequestFailed wraps err, lifting the server message out of an APIError
func NewRequestFailed(err error) *RequestFailed {
	rf := &RequestFailed{Err: err}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		rf.Message = apiErr.Message
		rf.Code = apiErr.Code
		rf.StatusCode = apiErr.StatusCode
	}
	return rf
}
