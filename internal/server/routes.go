package server

import (
	"github.com/labstack/echo-contrib/echoprometheus"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echoprometheus.NewHandler())

	// Auth routes
	s.echo.POST("/auth/signup", s.handleSignup)
	s.echo.POST("/auth/login", s.handleLogin)
	s.echo.POST("/auth/logout", s.handleLogout, s.requireAuth)

	// Device API: both operations are gated on the caller's session
	// role matching the :role they act on.
	api := s.echo.Group("/api", s.requireAuth)
	api.GET("/stream/:role", s.handleStream, s.limitStreamOpens, s.requireMatchingRole)
	api.POST("/send/:role", s.handleSend, s.requireMatchingRole)
}
