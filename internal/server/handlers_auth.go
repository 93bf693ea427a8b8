package server

import (
	"errors"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/paircast/internal/domain"
)

type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) handleSignup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, errorBody("invalid request body"))
	}

	user, err := s.auth.SignUp(c.Request().Context(), req.Username, req.Password)
	if errors.Is(err, domain.ErrUsernameTaken) {
		return c.JSON(409, errorBody("username already taken"))
	}
	if err != nil {
		// Validation failures carry a user-presentable message.
		return c.JSON(400, errorBody(err.Error()))
	}

	return c.JSON(201, map[string]string{"username": user.Username})
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, errorBody("invalid request body"))
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return c.JSON(400, errorBody("unknown role"))
	}

	deviceSession, err := s.auth.Login(c.Request().Context(), req.Username, req.Password, role)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		return c.JSON(401, errorBody("invalid credentials"))
	}
	if err != nil {
		slog.Error("Login failed", "username", req.Username, "error", err)
		return c.JSON(500, errorBody("internal error"))
	}

	cookie, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		slog.Warn("Replacing unreadable session cookie", "error", err)
	}
	cookie.Values[sessionKeyToken] = deviceSession.Token
	if err := cookie.Save(c.Request(), c.Response().Writer); err != nil {
		slog.Error("Failed to save session cookie", "error", err)
		return c.JSON(500, errorBody("internal error"))
	}

	return c.JSON(200, map[string]string{
		"username": deviceSession.Username,
		"role":     deviceSession.Role.String(),
	})
}

func (s *Server) handleLogout(c echo.Context) error {
	cookie, err := s.sessionStore.Get(c.Request(), sessionName)
	if err == nil {
		if token, ok := cookie.Values[sessionKeyToken].(string); ok && token != "" {
			if err := s.auth.Logout(c.Request().Context(), token); err != nil {
				slog.Warn("Failed to delete session", "error", err)
			}
		}
	}

	cookie.Options.MaxAge = -1
	if err := cookie.Save(c.Request(), c.Response().Writer); err != nil {
		slog.Error("Failed to clear session cookie", "error", err)
		return c.JSON(500, errorBody("internal error"))
	}

	return c.JSON(200, map[string]string{"status": "ok"})
}
