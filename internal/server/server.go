package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pscheid92/paircast/internal/config"
	"github.com/pscheid92/paircast/internal/domain"
	"github.com/pscheid92/paircast/internal/relay"
)

// Session cookie keys
const (
	sessionName     = "paircast_session"
	sessionKeyToken = "token"
)

// Registered once; the middleware registers its collectors with the
// default Prometheus registry, so a fresh instance per Echo would
// panic on duplicate registration.
var prometheusMiddleware = echoprometheus.NewMiddleware("paircast")

type Server struct {
	echo          *echo.Echo
	config        *config.Config
	auth          domain.AuthService
	hub           *relay.Hub
	sessionStore  *sessions.CookieStore
	streamLimiter *streamRateLimiter
	db            postgresHealthChecker
	redis         redisHealthChecker
	startTime     time.Time
}

func NewServer(cfg *config.Config, auth domain.AuthService, hub *relay.Hub, db postgresHealthChecker, redis redisHealthChecker) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(prometheusMiddleware)

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   3600 * cfg.SessionTTLHours,
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}

	srv := &Server{
		echo:          e,
		config:        cfg,
		auth:          auth,
		hub:           hub,
		sessionStore:  sessionStore,
		streamLimiter: newStreamRateLimiter(cfg.StreamOpensPerSec, cfg.StreamOpensBurst),
		db:            db,
		redis:         redis,
		startTime:     time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
