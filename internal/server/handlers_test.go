package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/paircast/internal/config"
	"github.com/pscheid92/paircast/internal/domain"
	"github.com/pscheid92/paircast/internal/relay"
	"github.com/stretchr/testify/require"
)

// fakeAuth is an in-memory domain.AuthService for handler tests.
type fakeAuth struct {
	mu       sync.Mutex
	users    map[string]string
	sessions map[string]domain.Identity
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		users:    make(map[string]string),
		sessions: make(map[string]domain.Identity),
	}
}

func (f *fakeAuth) SignUp(_ context.Context, username, password string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(username) < 3 {
		return nil, fmt.Errorf("username too short")
	}
	if _, exists := f.users[username]; exists {
		return nil, domain.ErrUsernameTaken
	}
	f.users[username] = password
	return &domain.User{ID: uuid.New(), Username: username}, nil
}

func (f *fakeAuth) Login(_ context.Context, username, password string, role domain.Role) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, exists := f.users[username]
	if !exists || stored != password {
		return nil, domain.ErrInvalidCredentials
	}
	token := uuid.NewString()
	f.sessions[token] = domain.Identity{Username: username, Role: role}
	return &domain.Session{Token: token, Username: username, Role: role}, nil
}

func (f *fakeAuth) Logout(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
	return nil
}

func (f *fakeAuth) Identify(_ context.Context, token string) (domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	identity, exists := f.sessions[token]
	if !exists {
		return domain.Identity{}, domain.ErrSessionNotFound
	}
	return identity, nil
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:            "test",
		Port:              "0",
		SessionSecret:     strings.Repeat("s", 32),
		SessionTTLHours:   1,
		MaxStreamsPerRole: 50,
		StreamOpensPerSec: 1000,
		StreamOpensBurst:  1000,
	}
}

func newTestServer(t *testing.T) (*Server, *fakeAuth) {
	t.Helper()

	auth := newFakeAuth()
	hub := relay.NewHub(clockwork.NewRealClock(), 50)
	t.Cleanup(hub.Stop)

	srv := NewServer(testConfig(), auth, hub, nil, nil)
	return srv, auth
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

// signupAndLogin registers a user (once) and logs in as the given role,
// returning the session cookies.
func signupAndLogin(t *testing.T, srv *Server, auth *fakeAuth, username string, role domain.Role) []*http.Cookie {
	t.Helper()

	auth.mu.Lock()
	auth.users[username] = "secret password"
	auth.mu.Unlock()

	body := fmt.Sprintf(`{"username":%q,"password":"secret password","role":%q}`, username, role)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, jsonRequest(http.MethodPost, "/auth/login", body))
	require.Equal(t, 200, rec.Code)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}
