package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/paircast/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const (
	// Redis hash field names for session keys.
	fieldUsername  = "username"
	fieldRole      = "role"
	fieldCreatedAt = "created_at"
)

type SessionRepo struct {
	rdb   *goredis.Client
	clock clockwork.Clock
	ttl   time.Duration
}

func NewSessionRepo(rdb *goredis.Client, clock clockwork.Clock, ttl time.Duration) *SessionRepo {
	return &SessionRepo{rdb: rdb, clock: clock, ttl: ttl}
}

func (s *SessionRepo) Create(ctx context.Context, identity domain.Identity) (*domain.Session, error) {
	token := uuid.NewString()
	now := s.clock.Now()

	sk := sessionKey(token)
	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, sk, map[string]any{
		fieldUsername:  identity.Username,
		fieldRole:      identity.Role.String(),
		fieldCreatedAt: strconv.FormatInt(now.UnixMilli(), 10),
	})
	pipe.Expire(ctx, sk, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return &domain.Session{
		Token:     token,
		Username:  identity.Username,
		Role:      identity.Role,
		CreatedAt: now,
	}, nil
}

func (s *SessionRepo) Get(ctx context.Context, token string) (*domain.Session, error) {
	fields, err := s.rdb.HGetAll(ctx, sessionKey(token)).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	role, err := domain.ParseRole(fields[fieldRole])
	if err != nil {
		return nil, fmt.Errorf("corrupt session %s: %w", token, err)
	}

	session := &domain.Session{
		Token:    token,
		Username: fields[fieldUsername],
		Role:     role,
	}

	if ts, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64); err == nil {
		session.CreatedAt = time.UnixMilli(ts)
	}

	return session, nil
}

func (s *SessionRepo) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, sessionKey(token)).Err()
}

func sessionKey(token string) string {
	return "session:" + token
}
