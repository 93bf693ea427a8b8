package server

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/paircast/internal/domain"
	"github.com/pscheid92/paircast/internal/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_RoleMismatchForbidden(t *testing.T) {
	srv, auth := newTestServer(t)
	cookies := signupAndLogin(t, srv, auth, "alice", domain.RoleSecondary)

	req := httptest.NewRequest(http.MethodGet, "/api/stream/primary", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	assert.Equal(t, 403, rec.Code)
}

func TestStream_RequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/stream/primary", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	assert.Equal(t, 401, rec.Code)
}

func TestStream_SSEDelivery(t *testing.T) {
	srv, auth := newTestServer(t)
	ts := httptest.NewServer(srv.echo)
	t.Cleanup(ts.Close)

	cookies := signupAndLogin(t, srv, auth, "alice", domain.RolePrimary)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/stream/primary", nil)
	require.NoError(t, err)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// Headers are only flushed once the stream is registered.
	require.Equal(t, 1, srv.hub.StreamCount("alice", domain.RolePrimary))

	require.NoError(t, srv.hub.Broadcast("alice", domain.RolePrimary, domain.NewTextEvent("hi")))

	lineCh := make(chan string, 1)
	go func() {
		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			if strings.HasPrefix(line, "data: ") {
				lineCh <- line
				return
			}
		}
	}()

	select {
	case line := <-lineCh:
		assert.JSONEq(t, `{"type":"text","data":"hi"}`, strings.TrimPrefix(strings.TrimSpace(line), "data: "))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for SSE event")
	}

	// Closing the body is the disconnect; the stream must be pruned.
	resp.Body.Close()
	require.Eventually(t, func() bool {
		return srv.hub.StreamCount("alice", domain.RolePrimary) == 0
	}, time.Second, time.Millisecond)
}

func TestStream_OpensRateLimitedPerIP(t *testing.T) {
	cfg := testConfig()
	cfg.StreamOpensPerSec = 0.001 // no refill within the test
	cfg.StreamOpensBurst = 2

	auth := newFakeAuth()
	hub := relay.NewHub(clockwork.NewRealClock(), 50)
	t.Cleanup(hub.Stop)
	srv := NewServer(cfg, auth, hub, nil, nil)

	ts := httptest.NewServer(srv.echo)
	t.Cleanup(ts.Close)

	cookies := signupAndLogin(t, srv, auth, "alice", domain.RolePrimary)

	open := func() *http.Response {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/stream/primary", nil)
		require.NoError(t, err)
		for _, cookie := range cookies {
			req.AddCookie(cookie)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	require.Equal(t, 200, open().StatusCode)
	require.Equal(t, 200, open().StatusCode)

	// Burst spent: the third open from the same IP is rejected.
	assert.Equal(t, 429, open().StatusCode)
}

// A client dropping its SSE connection while broadcasts are in flight
// must not leave the writer racing the server's connection teardown.
func TestStream_ClientDisconnectMidFlood(t *testing.T) {
	srv, auth := newTestServer(t)
	ts := httptest.NewServer(srv.echo)
	t.Cleanup(ts.Close)

	cookies := signupAndLogin(t, srv, auth, "alice", domain.RolePrimary)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/stream/primary", nil)
	require.NoError(t, err)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	require.Eventually(t, func() bool {
		return srv.hub.StreamCount("alice", domain.RolePrimary) == 1
	}, time.Second, time.Millisecond)

	floodDone := make(chan struct{})
	go func() {
		defer close(floodDone)
		for i := 0; i < 500; i++ {
			_ = srv.hub.Broadcast("alice", domain.RolePrimary, domain.NewTextEvent("flood"))
		}
	}()
	resp.Body.Close()
	<-floodDone

	require.Eventually(t, func() bool {
		return srv.hub.StreamCount("alice", domain.RolePrimary) == 0
	}, 2*time.Second, time.Millisecond)
}

func TestStream_WebSocketDelivery(t *testing.T) {
	srv, auth := newTestServer(t)
	ts := httptest.NewServer(srv.echo)
	t.Cleanup(ts.Close)

	cookies := signupAndLogin(t, srv, auth, "alice", domain.RoleSecondary)

	header := http.Header{}
	var parts []string
	for _, cookie := range cookies {
		parts = append(parts, cookie.Name+"="+cookie.Value)
	}
	header.Set("Cookie", strings.Join(parts, "; "))

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/stream/secondary"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Registration happens just after the upgrade handshake.
	require.Eventually(t, func() bool {
		return srv.hub.StreamCount("alice", domain.RoleSecondary) == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, srv.hub.Broadcast("alice", domain.RoleSecondary, domain.NewTextEvent("hi phone")))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"text","data":"hi phone"}`, string(msg))

	conn.Close()
	require.Eventually(t, func() bool {
		return srv.hub.StreamCount("alice", domain.RoleSecondary) == 0
	}, time.Second, time.Millisecond)
}
