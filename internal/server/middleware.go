package server

import (
	"errors"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/paircast/internal/domain"
	"github.com/pscheid92/paircast/internal/metrics"
)

// Echo context keys set by the middleware chain.
const (
	contextKeyIdentity = "identity"
	contextKeyRole     = "role"
)

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}

// requireAuth resolves the session cookie to an authenticated identity
// and stores it in the request context. Everything behind it can trust
// the identity without re-checking.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session, err := s.sessionStore.Get(c.Request(), sessionName)
		if err != nil {
			return c.JSON(401, errorBody("authentication required"))
		}

		token, ok := session.Values[sessionKeyToken].(string)
		if !ok || token == "" {
			return c.JSON(401, errorBody("authentication required"))
		}

		identity, err := s.auth.Identify(c.Request().Context(), token)
		if errors.Is(err, domain.ErrSessionNotFound) {
			return c.JSON(401, errorBody("session expired"))
		}
		if err != nil {
			slog.Error("Failed to resolve session", "error", err)
			return c.JSON(500, errorBody("internal error"))
		}

		c.Set(contextKeyIdentity, identity)
		return next(c)
	}
}

// limitStreamOpens rate-limits stream opens per client IP. Sends are
// not limited: they are ordinary short requests, while each stream
// open pins a connection and a registry slot.
func (s *Server) limitStreamOpens(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.streamLimiter.allow(c.RealIP()) {
			metrics.RelayStreamsThrottledTotal.Inc()
			return c.JSON(429, errorBody("too many stream opens"))
		}
		return next(c)
	}
}

// requireMatchingRole parses the :role path parameter and rejects the
// request when it does not match the authenticated session's role. A
// secondary session can neither open a primary stream nor send as
// primary.
func (s *Server) requireMatchingRole(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, err := domain.ParseRole(c.Param("role"))
		if err != nil {
			return c.JSON(400, errorBody("unknown role"))
		}

		identity := c.Get(contextKeyIdentity).(domain.Identity)
		if identity.Role != role {
			return c.JSON(403, errorBody("session role does not match"))
		}

		c.Set(contextKeyRole, role)
		return next(c)
	}
}
