package core

import (
	"context"
	"time"
)

// Principal is the authenticated identity returned by a successful login and
// stored in the caller's session.
type Principal struct {
	Username        string    `json:"username"`
	Role            string    `json:"role"`
	AuthenticatedAt time.Time `json:"authenticated_at"`
}

// Authenticator defines authentication behaviour.
type Authenticator interface {
	Login(ctx context.Context, username, digest string) (Principal, error)
}
