// Package identity resolves human-entered handles to stable numeric
// identities via the external social-graph service.
package identity

import (
	"context"
	"errors"
)

// ErrUserNotFound reports an empty result set. Callers treat this as a
// recoverable, user-facing miss rather than a request failure.
var ErrUserNotFound = errors.New("identity: user not found")

// User is the resolved display profile for a numeric identity.
type User struct {
	FID         uint64 `json:"fid"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	PfpURL      string `json:"pfp_url"`
}

// Resolver looks up users in the social graph.
type Resolver interface {
	// SearchUser resolves a handle to its best-matching user.
	// Returns ErrUserNotFound on an empty result set.
	SearchUser(ctx context.Context, handle string) (*User, error)

	// UserByFID fetches the profile for a known numeric identity.
	// Returns ErrUserNotFound if the identity does not exist.
	UserByFID(ctx context.Context, fid uint64) (*User, error)
}
