package relay

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/paircast/internal/domain"
	"github.com/pscheid92/paircast/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
)

// Stream is one registered push stream: the handle the HTTP layer holds
// while the connection is open.
type Stream struct {
	identity domain.Identity
	writer   *streamWriter
}

func (s *Stream) Identity() domain.Identity { return s.identity }

// Done is closed when the stream's writer goroutine has exited: after
// a failed write or ping, after eviction, after unregistration, or on
// hub stop. Once Done is closed the sink is never written to again, so
// the transport behind it can be torn down.
func (s *Stream) Done() <-chan struct{} { return s.writer.exitedCh }

// wireMessage is the framed JSON object pushed to clients.
type wireMessage struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

func encodeEvent(event domain.Event) ([]byte, error) {
	switch event.Kind() {
	case domain.EventText, domain.EventImage:
	default:
		return nil, fmt.Errorf("unknown event kind %q", event.Kind())
	}
	return json.Marshal(wireMessage{Type: string(event.Kind()), Data: event.Data()})
}

// hubCmd is the command interface for the Hub actor.
type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	stream       *Stream
	errorChannel chan error
}

type unregisterCmd struct {
	baseHubCmd
	stream *Stream
}

type broadcastCmd struct {
	baseHubCmd
	username string
	role     domain.Role
	data     []byte
}

type streamCountCmd struct {
	baseHubCmd
	username     string
	role         domain.Role
	replyChannel chan int
}

type streamsCmd struct {
	baseHubCmd
	username     string
	role         domain.Role
	replyChannel chan []*Stream
}

type stopCmd struct {
	baseHubCmd
}

// roleStreams holds the open streams of one user, bucketed by role.
type roleStreams map[domain.Role]map[*Stream]struct{}

// Hub owns the registry of open push streams and fans events out to
// them. A single goroutine processes all commands; per-stream writer
// goroutines perform the actual client writes.
type Hub struct {
	cmdCh             chan hubCmd
	clock             clockwork.Clock
	users             map[string]roleStreams
	maxStreamsPerRole int
	done              chan struct{}
	stopTimeout       time.Duration
}

// NewHub creates a hub and starts its actor goroutine.
// maxStreamsPerRole caps concurrent streams per (user, role) pair.
func NewHub(clock clockwork.Clock, maxStreamsPerRole int) *Hub {
	h := &Hub{
		cmdCh:             make(chan hubCmd, 256),
		clock:             clock,
		users:             make(map[string]roleStreams),
		maxStreamsPerRole: maxStreamsPerRole,
		done:              make(chan struct{}),
		stopTimeout:       stopTimeout,
	}
	go h.run()
	return h
}

// Register inserts a new stream for the identity and starts its writer.
// The stream is visible to Broadcast before Register returns, so there
// is no window where the connection is open but unreachable. Errors
// when the per-role cap is hit or the hub is stopped.
func (h *Hub) Register(identity domain.Identity, sink Sink) (*Stream, error) {
	select {
	case <-h.done:
		return nil, fmt.Errorf("hub stopped")
	default:
	}

	stream := &Stream{identity: identity}
	stream.writer = newStreamWriter(sink, h.clock, func() { h.scheduleUnregister(stream) })

	errCh := make(chan error, 1)
	select {
	case h.cmdCh <- registerCmd{stream: stream, errorChannel: errCh}:
	case <-h.done:
		stream.writer.stop()
		return nil, fmt.Errorf("hub stopped")
	}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		if err != nil {
			stream.writer.stop()
			return nil, err
		}
		return stream, nil
	case <-timer.Chan():
		stream.writer.stop()
		return nil, fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a stream from the registry and stops its writer.
// No-op if the stream is already gone; safe to call more than once.
func (h *Hub) Unregister(stream *Stream) {
	h.scheduleUnregister(stream)
}

func (h *Hub) scheduleUnregister(stream *Stream) {
	select {
	case h.cmdCh <- unregisterCmd{stream: stream}:
	case <-h.done:
	}
}

// Broadcast delivers one event to every open stream of (username,
// targetRole). Zero recipients is success; individual recipient
// failures are absorbed and prune the failing stream. The only caller
// error is an event kind outside the closed set.
func (h *Hub) Broadcast(username string, targetRole domain.Role, event domain.Event) error {
	data, err := encodeEvent(event)
	if err != nil {
		return err
	}
	metrics.RelayEventsTotal.WithLabelValues(string(event.Kind())).Inc()

	select {
	case h.cmdCh <- broadcastCmd{username: username, role: targetRole, data: data}:
	case <-h.done:
	}
	return nil
}

// StreamCount returns the number of open streams for (username, role).
// Returns -1 if the command times out.
func (h *Hub) StreamCount(username string, role domain.Role) int {
	replyCh := make(chan int, 1)
	select {
	case h.cmdCh <- streamCountCmd{username: username, role: role, replyChannel: replyCh}:
	case <-h.done:
		return 0
	}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("StreamCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Streams returns a snapshot of the open streams for (username, role).
// The slice is detached from the registry: callers iterate it without
// holding anything that would block concurrent register or unregister.
func (h *Hub) Streams(username string, role domain.Role) []*Stream {
	replyCh := make(chan []*Stream, 1)
	select {
	case h.cmdCh <- streamsCmd{username: username, role: role, replyChannel: replyCh}:
	case <-h.done:
		return nil
	}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case streams := <-replyCh:
		return streams
	case <-timer.Chan():
		slog.Warn("Streams snapshot timed out", "timeout", commandTimeout)
		return nil
	}
}

// Stop shuts down the hub, closing all streams. Blocks until the actor
// goroutine has exited or the shutdown timeout is reached.
func (h *Hub) Stop() {
	select {
	case h.cmdCh <- stopCmd{}:
	case <-h.done:
		return
	}

	timer := h.clock.NewTimer(h.stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		slog.Info("Relay hub stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Relay hub stop timeout exceeded", "timeout", h.stopTimeout)
		metrics.RelayStopTimeoutsTotal.Inc()
	}
}

func (h *Hub) run() {
	defer close(h.done)

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case registerCmd:
			h.handleRegister(c)
		case unregisterCmd:
			h.handleUnregister(c.stream)
		case broadcastCmd:
			h.handleBroadcast(c)
		case streamCountCmd:
			c.replyChannel <- len(h.users[c.username][c.role])
		case streamsCmd:
			bucket := h.users[c.username][c.role]
			snapshot := make([]*Stream, 0, len(bucket))
			for stream := range bucket {
				snapshot = append(snapshot, stream)
			}
			c.replyChannel <- snapshot
		case stopCmd:
			h.handleStop()
			return
		default:
			slog.Warn("Relay hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	identity := c.stream.identity

	if len(h.users[identity.Username][identity.Role]) >= h.maxStreamsPerRole {
		slog.Warn("Rejecting stream: max streams reached",
			"username", identity.Username,
			"role", identity.Role.String(),
			"max_streams", h.maxStreamsPerRole,
		)
		c.errorChannel <- fmt.Errorf("max streams per role (%d) reached", h.maxStreamsPerRole)
		return
	}

	user, exists := h.users[identity.Username]
	if !exists {
		user = make(roleStreams)
		h.users[identity.Username] = user
	}
	bucket, exists := user[identity.Role]
	if !exists {
		bucket = make(map[*Stream]struct{})
		user[identity.Role] = bucket
	}
	bucket[c.stream] = struct{}{}

	metrics.RelayActiveStreams.WithLabelValues(identity.Role.String()).Inc()
	metrics.RelayActiveUsers.Set(float64(len(h.users)))

	slog.Debug("Stream registered",
		"username", identity.Username,
		"role", identity.Role.String(),
		"streams_for_role", len(bucket),
	)
	c.errorChannel <- nil
}

func (h *Hub) handleUnregister(stream *Stream) {
	identity := stream.identity

	user, exists := h.users[identity.Username]
	if !exists {
		return
	}
	bucket, exists := user[identity.Role]
	if !exists {
		return
	}
	if _, exists := bucket[stream]; !exists {
		return
	}

	stream.writer.stop()
	delete(bucket, stream)
	metrics.RelayActiveStreams.WithLabelValues(identity.Role.String()).Dec()

	// Garbage-collect empty buckets so the registry never grows with
	// the set of ever-seen usernames.
	if len(bucket) == 0 {
		delete(user, identity.Role)
	}
	if len(user) == 0 {
		delete(h.users, identity.Username)
		slog.Debug("Last stream closed for user", "username", identity.Username)
	}
	metrics.RelayActiveUsers.Set(float64(len(h.users)))
}

func (h *Hub) handleBroadcast(c broadcastCmd) {
	bucket := h.users[c.username][c.role]
	if len(bucket) == 0 {
		return
	}

	var stalled []*Stream
	for stream := range bucket {
		select {
		case stream.writer.sendCh <- c.data:
			metrics.RelayDeliveriesTotal.WithLabelValues("enqueued").Inc()
		default:
			stalled = append(stalled, stream)
		}
	}

	for _, stream := range stalled {
		slog.Warn("Evicting stalled stream",
			"username", c.username,
			"role", c.role.String(),
		)
		metrics.RelayDeliveriesTotal.WithLabelValues("evicted").Inc()
		h.handleUnregister(stream)
	}
}

func (h *Hub) handleStop() {
	totalStreams := 0
	for _, user := range h.users {
		for _, bucket := range user {
			totalStreams += len(bucket)
			for stream := range bucket {
				stream.writer.stop()
			}
		}
	}
	h.users = make(map[string]roleStreams)
	metrics.RelayActiveStreams.Reset()
	metrics.RelayActiveUsers.Set(0)

	slog.Info("Relay hub shutdown complete", "closed_streams", totalStreams)
}
