package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserRepository interface {
	// Create inserts a new user. Returns ErrUsernameTaken when the
	// username is already registered.
	Create(ctx context.Context, username, passwordHash string) (*User, error)

	// GetByUsername returns ErrUserNotFound when no such user exists.
	GetByUsername(ctx context.Context, username string) (*User, error)
}
