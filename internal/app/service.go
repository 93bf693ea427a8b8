package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/pscheid92/paircast/internal/domain"
	"github.com/pscheid92/paircast/internal/metrics"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 64
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt input limit
)

// Service implements domain.AuthService on top of the user and session
// repositories.
type Service struct {
	users         domain.UserRepository
	sessions      domain.SessionRepository
	identifyGroup singleflight.Group
}

func NewService(users domain.UserRepository, sessions domain.SessionRepository) *Service {
	return &Service{users: users, sessions: sessions}
}

func validateCredentials(username, password string) error {
	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		return fmt.Errorf("username must be between %d and %d characters", minUsernameLength, maxUsernameLength)
	}
	if n := len(password); n < minPasswordLength || n > maxPasswordLength {
		return fmt.Errorf("password must be between %d and %d characters", minPasswordLength, maxPasswordLength)
	}
	return nil
}

func (s *Service) SignUp(ctx context.Context, username, password string) (*domain.User, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, username, string(hash))
	if err != nil {
		return nil, err
	}

	metrics.AuthSignupsTotal.Inc()
	slog.Info("User signed up", "username", username)
	return user, nil
}

func (s *Service) Login(ctx context.Context, username, password string, role domain.Role) (*domain.Session, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		// Burn a comparison anyway so unknown usernames take as long
		// as wrong passwords.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"), []byte(password))
		metrics.AuthLoginsTotal.WithLabelValues("failure").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.AuthLoginsTotal.WithLabelValues("failure").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	session, err := s.sessions.Create(ctx, domain.Identity{Username: user.Username, Role: role})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	metrics.AuthLoginsTotal.WithLabelValues("success").Inc()
	slog.Info("User logged in", "username", username, "role", role.String())
	return session, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Identify resolves a session token to the identity it was issued for.
// Uses singleflight to collapse concurrent lookups for the same token,
// which a device opening several streams at once will trigger.
func (s *Service) Identify(ctx context.Context, token string) (domain.Identity, error) {
	result, err, _ := s.identifyGroup.Do(token, func() (any, error) {
		session, err := s.sessions.Get(ctx, token)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, domain.ErrSessionNotFound
		}
		return domain.Identity{Username: session.Username, Role: session.Role}, nil
	})
	if err != nil {
		return domain.Identity{}, err
	}
	return result.(domain.Identity), nil
}
