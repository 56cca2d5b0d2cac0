// Package identity holds the authenticated caller's identity. It is
// constructed once at startup and injected into every component that talks
// to the backend, rather than read from ambient process state at call sites.
package identity

import (
	"fmt"
	"os"
)

const (
	tokenEnv  = "RENTCHAT_TOKEN"
	userIDEnv = "RENTCHAT_USER_ID"
)

// Identity is the logged-in platform user on whose behalf the client acts.
type Identity struct {
	UserID string
	Token  string
}

// FromEnv builds an Identity from the process environment (optionally
// pre-loaded from a .env file). Both fields are required: the client never
// attempts an unauthenticated request.
func FromEnv() (*Identity, error) {
	id := &Identity{
		UserID: os.Getenv(userIDEnv),
		Token:  os.Getenv(tokenEnv),
	}
	if id.UserID == "" {
		return nil, fmt.Errorf("%s is not set", userIDEnv)
	}
	if id.Token == "" {
		return nil, fmt.Errorf("%s is not set", tokenEnv)
	}
	return id, nil
}

// HasCredential reports whether a bearer token is present.
func (id *Identity) HasCredential() bool {
	return id != nil && id.Token != ""
}
