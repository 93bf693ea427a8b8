package domain

import (
	"context"
	"time"
)

// Session is one authenticated device session: an opaque token bound to
// a (username, role) pair. A user may hold any number of concurrent
// sessions per role (two tabs both acting as "primary" are allowed).
type Session struct {
	Token     string
	Username  string
	Role      Role
	CreatedAt time.Time
}

type SessionRepository interface {
	// Create issues a fresh token for the identity.
	Create(ctx context.Context, identity Identity) (*Session, error)

	// Get returns (nil, nil) when the token is unknown or expired.
	Get(ctx context.Context, token string) (*Session, error)

	Delete(ctx context.Context, token string) error
}

// AuthService is the boundary consumed by the HTTP layer. It owns
// credential verification and session issuance; the relay core only
// ever sees the resolved Identity.
type AuthService interface {
	SignUp(ctx context.Context, username, password string) (*User, error)
	Login(ctx context.Context, username, password string, role Role) (*Session, error)
	Logout(ctx context.Context, token string) error
	Identify(ctx context.Context, token string) (Identity, error)
}
