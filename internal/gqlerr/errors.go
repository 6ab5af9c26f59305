// Package gqlerr defines the error taxonomy surfaced at the GraphQL
// boundary. Every error leaving a resolver is one of these; anything else
// is wrapped before it reaches a client.
package gqlerr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Code identifies an error class in the extensions payload.
type Code string

const (
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeBadUserInput    Code = "BAD_USER_INPUT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeDatabase        Code = "DATABASE_ERROR"
	CodeInternal        Code = "INTERNAL_SERVER_ERROR"
)

// Error is the tagged error type propagated through resolvers and rules.
// Diagnostic carries the underlying cause for logs only and is never
// serialized to clients.
type Error struct {
	Code       Code
	Message    string
	StatusCode int
	Path       []string
	Diagnostic string
}

func (e *Error) Error() string {
	if e.Diagnostic != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Diagnostic)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MarshalJSON renders the wire shape {message, path?, extensions:{code, statusCode, timestamp}}.
func (e *Error) MarshalJSON() ([]byte, error) {
	type extensions struct {
		Code       Code   `json:"code"`
		StatusCode int    `json:"statusCode"`
		Timestamp  string `json:"timestamp"`
	}
	return json.Marshal(struct {
		Message    string     `json:"message"`
		Path       []string   `json:"path,omitempty"`
		Extensions extensions `json:"extensions"`
	}{
		Message: e.Message,
		Path:    e.Path,
		Extensions: extensions{
			Code:       e.Code,
			StatusCode: e.StatusCode,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// WithPath returns a copy of e annotated with a response path.
func (e *Error) WithPath(path ...string) *Error {
	clone := *e
	clone.Path = append([]string(nil), path...)
	return &clone
}

// Authentication builds a 401 UNAUTHENTICATED error.
func Authentication(message string) *Error {
	if message == "" {
		message = "you must be logged in to perform this action"
	}
	return &Error{Code: CodeUnauthenticated, Message: message, StatusCode: http.StatusUnauthorized}
}

// Forbidden builds a 403 FORBIDDEN error.
func Forbidden(message string) *Error {
	if message == "" {
		message = "you are not allowed to perform this action"
	}
	return &Error{Code: CodeForbidden, Message: message, StatusCode: http.StatusForbidden}
}

// Validation builds a 400 BAD_USER_INPUT error.
func Validation(message string) *Error {
	return &Error{Code: CodeBadUserInput, Message: message, StatusCode: http.StatusBadRequest}
}

// NotFound builds a 404 NOT_FOUND error.
func NotFound(message string) *Error {
	if message == "" {
		message = "requested data was not found"
	}
	return &Error{Code: CodeNotFound, Message: message, StatusCode: http.StatusNotFound}
}

// Database wraps an underlying storage fault. The cause is kept as
// diagnostic context only.
func Database(message string, cause error) *Error {
	e := &Error{Code: CodeDatabase, Message: message, StatusCode: http.StatusInternalServerError}
	if e.Message == "" {
		e.Message = "database error"
	}
	if cause != nil {
		e.Diagnostic = cause.Error()
	}
	return e
}

// Internal wraps an unexpected fault.
func Internal(cause error) *Error {
	e := &Error{Code: CodeInternal, Message: "internal server error", StatusCode: http.StatusInternalServerError}
	if cause != nil {
		e.Diagnostic = cause.Error()
	}
	return e
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
