package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/paircast/internal/domain"
	"github.com/pscheid92/paircast/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // cookies carry auth; paired devices connect from app webviews
	},
}

// handleStream opens the long-lived push stream for the caller's device
// role. WebSocket when the client asks for an upgrade, SSE otherwise.
// The handler registers the stream, parks until the transport closes
// (or the writer dies on a failed write), and unregisters on the way
// out - closing is the only cancellation signal there is.
func (s *Server) handleStream(c echo.Context) error {
	identity := c.Get(contextKeyIdentity).(domain.Identity)

	if websocket.IsWebSocketUpgrade(c.Request()) {
		return s.streamWebSocket(c, identity)
	}
	return s.streamSSE(c, identity)
}

func (s *Server) streamSSE(c echo.Context, identity domain.Identity) error {
	response := c.Response()
	response.Header().Set(echo.HeaderContentType, "text/event-stream")
	response.Header().Set("Cache-Control", "no-cache")
	response.Header().Set("Connection", "keep-alive")
	response.Header().Set("X-Accel-Buffering", "no")

	// Commit the response before registering: from registration on, the
	// stream's writer goroutine is the only one touching the response.
	response.WriteHeader(200)
	response.Flush()

	sink := newSSESink(response)
	stream, err := s.hub.Register(identity, sink)
	if err != nil {
		// Headers are already out, so closing the connection is the
		// remaining way to tell the client to back off and retry.
		logging.WithError(err).Warn("Rejecting stream", "username", identity.Username)
		return nil
	}

	logger := logging.WithIdentity(identity.Username, identity.Role.String())
	logger.Info("Stream opened", "transport", "sse")

	select {
	case <-c.Request().Context().Done():
	case <-stream.Done():
	}

	// The response writer dies with this handler. Unregister stops the
	// writer; waiting on Done guarantees no write is in flight when the
	// connection is handed back to the HTTP server.
	s.hub.Unregister(stream)
	<-stream.Done()

	logger.Info("Stream closed")
	return nil
}

func (s *Server) streamWebSocket(c echo.Context, identity domain.Identity) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logging.WithError(err).Warn("WebSocket upgrade failed")
		return nil
	}

	sink := newWebSocketSink(conn)
	stream, err := s.hub.Register(identity, sink)
	if err != nil {
		_ = sink.Close()
		return nil
	}

	logger := logging.WithIdentity(identity.Username, identity.Role.String())
	logger.Info("Stream opened", "transport", "websocket")

	// Read pump: the client never sends application data; reading
	// drives pong handling and detects disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.hub.Unregister(stream)
	logger.Info("Stream closed")
	return nil
}
