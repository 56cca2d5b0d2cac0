package rest

import (
	"errors"
	"fmt"
)

// ErrNoCredential means no bearer token is available. The request is never
// attempted; callers surface it as an authentication error with no retry.
var ErrNoCredential = errors.New("no auth credential available")

// ErrNotFound maps a 404 (or empty lookup result) onto a sentinel so
// callers can distinguish "absent" from transport failure. For the direct
// session lookup, absent means "proceed to create"; a transport failure
// must not.
var ErrNotFound = errors.New("not found")

// StatusError is a non-success HTTP response from the backend.
type StatusError struct {
	Op     string
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.Code, e.Detail)
	}
	return fmt.Sprintf("%s: backend returned %d", e.Op, e.Code)
}
