// Package httputil provides HTTP response helpers and the outbound client
// used for service-to-service calls.
package httputil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ErrorBody is the JSON shape of all error responses.
type ErrorBody struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteErrorResponse writes a structured error body.
func WriteErrorResponse(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	WriteJSON(w, status, ErrorBody{Error: code, Message: message, Details: details})
}

// BadRequest writes a 400 response.
func BadRequest(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, http.StatusBadRequest, "BAD_REQUEST", message, nil)
}

// Unauthorized writes a 401 response.
func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "unauthorized"
	}
	WriteErrorResponse(w, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

// InternalError writes a 500 response.
func InternalError(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, http.StatusInternalServerError, "INTERNAL", message, nil)
}

// DecodeJSON decodes the request body into target, writing a 400 and
// returning false on failure.
func DecodeJSON(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	body, err := ReadAllStrict(r.Body, 1<<20)
	if err != nil {
		BadRequest(w, "failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, target); err != nil {
		BadRequest(w, "invalid JSON body")
		return false
	}
	return true
}

// ReadAllWithLimit reads up to limit bytes from r and reports whether the
// input was truncated.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, bool, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(body)) > limit {
		return body[:limit], true, nil
	}
	return body, false, nil
}

// ReadAllStrict reads up to limit bytes and fails if the input exceeds it.
func ReadAllStrict(r io.Reader, limit int64) ([]byte, error) {
	body, truncated, err := ReadAllWithLimit(r, limit)
	if err != nil {
		return nil, err
	}
	if truncated {
		return nil, fmt.Errorf("body exceeds %d bytes", limit)
	}
	return body, nil
}
