package server

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/paircast/internal/domain"
)

type sendRequest struct {
	Text        *string `json:"text"`
	Base64Image *string `json:"base64Image"`
}

// handleSend accepts one payload from the caller's device and relays it
// to all open streams of the paired role. Delivery to zero recipients
// is still success: the sender has no visibility into whether the peer
// device is currently connected.
func (s *Server) handleSend(c echo.Context) error {
	identity := c.Get(contextKeyIdentity).(domain.Identity)
	role := c.Get(contextKeyRole).(domain.Role)

	var req sendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, errorBody("invalid request body"))
	}

	var event domain.Event
	switch {
	case req.Text != nil && req.Base64Image == nil:
		event = domain.NewTextEvent(*req.Text)
	case req.Base64Image != nil && req.Text == nil:
		event = domain.NewImageEvent(*req.Base64Image)
	default:
		return c.JSON(400, errorBody("exactly one of text or base64Image is required"))
	}

	if err := s.hub.Broadcast(identity.Username, role.Peer(), event); err != nil {
		slog.Error("Broadcast failed", "username", identity.Username, "error", err)
		return c.JSON(500, errorBody("internal error"))
	}

	return c.JSON(200, map[string]string{"status": "ok"})
}
