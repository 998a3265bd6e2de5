// Package errors defines the service error taxonomy shared by all handlers.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies an error class for clients and logs.
type ErrorCode string

const (
	CodeBadRequest   ErrorCode = "BAD_REQUEST"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeUpstream     ErrorCode = "UPSTREAM_FAILED"
	CodeInternal     ErrorCode = "INTERNAL"
)

// ServiceError carries an error code, an HTTP status, and optional details.
type ServiceError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// WithDetails attaches a key/value detail pair and returns the error.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// BadRequest reports an invalid client request.
func BadRequest(message string) *ServiceError {
	return &ServiceError{Code: CodeBadRequest, Message: message, HTTPStatus: http.StatusBadRequest}
}

// Unauthorized reports a failed trust-boundary check. These fail closed.
func Unauthorized(message string, err error) *ServiceError {
	return &ServiceError{Code: CodeUnauthorized, Message: message, HTTPStatus: http.StatusUnauthorized, Err: err}
}

// NotFound reports a recoverable lookup miss.
func NotFound(message string) *ServiceError {
	return &ServiceError{Code: CodeNotFound, Message: message, HTTPStatus: http.StatusNotFound}
}

// Upstream reports a dependency failure with no safe fallback.
func Upstream(message string, err error) *ServiceError {
	return &ServiceError{Code: CodeUpstream, Message: message, HTTPStatus: http.StatusBadGateway, Err: err}
}

// Internal reports an unexpected server-side failure.
func Internal(message string, err error) *ServiceError {
	return &ServiceError{Code: CodeInternal, Message: message, HTTPStatus: http.StatusInternalServerError, Err: err}
}

// GetServiceError returns err as a *ServiceError if it is one anywhere in its
// chain, or nil otherwise.
func GetServiceError(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return nil
}
