package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeDeadline = 5 * time.Second
	pongDeadline  = 60 * time.Second
)

// sseSink frames messages as server-sent events: a "data:" record
// terminated by a blank line. Send and Ping run on the stream's writer
// goroutine while the request handler sits blocked; the transport is
// torn down by the handler returning, so Close is a no-op. The write
// deadline bounds how long a stalled peer can park the writer, which
// in turn bounds how long the handler waits for it on teardown.
type sseSink struct {
	response *echo.Response
	control  *http.ResponseController
}

func newSSESink(response *echo.Response) *sseSink {
	return &sseSink{
		response: response,
		control:  http.NewResponseController(response),
	}
}

func (s *sseSink) Send(data []byte) error {
	_ = s.control.SetWriteDeadline(time.Now().Add(writeDeadline))
	if _, err := fmt.Fprintf(s.response, "data: %s\n\n", data); err != nil {
		return err
	}
	return s.control.Flush()
}

func (s *sseSink) Ping() error {
	// Comment line: ignored by EventSource, keeps proxies from idling
	// the connection out.
	_ = s.control.SetWriteDeadline(time.Now().Add(writeDeadline))
	if _, err := fmt.Fprint(s.response, ": ping\n\n"); err != nil {
		return err
	}
	return s.control.Flush()
}

func (s *sseSink) Close() error { return nil }

// wsSink pushes each message as one text frame and uses protocol-level
// ping/pong for liveness.
type wsSink struct {
	conn *websocket.Conn
}

func newWebSocketSink(conn *websocket.Conn) *wsSink {
	_ = conn.SetReadDeadline(time.Now().Add(pongDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongDeadline))
	})
	return &wsSink{conn: conn}
}

func (s *wsSink) Send(data []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *wsSink) Ping() error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

func (s *wsSink) Close() error {
	return s.conn.Close()
}
