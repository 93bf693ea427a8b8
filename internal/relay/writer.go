package relay

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/paircast/internal/metrics"
)

const (
	pingInterval      = 30 * time.Second
	messageBufferSize = 16
)

// Sink is the opaque write side of one open push stream. Send and Ping
// are only ever invoked from the stream's writer goroutine; Close must
// be safe to call concurrently and more than once. A failed Send or
// Ping means the peer is gone.
type Sink interface {
	Send(data []byte) error
	Ping() error
	Close() error
}

// streamWriter pumps framed messages from a buffered channel to a Sink.
// The buffer decouples the hub actor from slow clients: the actor only
// ever does a non-blocking enqueue.
type streamWriter struct {
	sink     Sink
	clock    clockwork.Clock
	sendCh   chan []byte
	doneCh   chan struct{}
	exitedCh chan struct{}
	stopOnce sync.Once
	onDead   func()
}

func newStreamWriter(sink Sink, clock clockwork.Clock, onDead func()) *streamWriter {
	w := &streamWriter{
		sink:     sink,
		clock:    clock,
		sendCh:   make(chan []byte, messageBufferSize),
		doneCh:   make(chan struct{}),
		exitedCh: make(chan struct{}),
		onDead:   onDead,
	}
	go w.run()
	return w
}

func (w *streamWriter) run() {
	defer close(w.exitedCh)

	ticker := w.clock.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		// Stop wins over buffered frames: once doneCh is closed the
		// sink is never touched again, so whoever waits on exitedCh
		// may tear the underlying transport down.
		select {
		case <-w.doneCh:
			return
		default:
		}

		select {
		case msg := <-w.sendCh:
			if err := w.sink.Send(msg); err != nil {
				w.die()
				return
			}
		case <-ticker.Chan():
			if err := w.sink.Ping(); err != nil {
				w.die()
				return
			}
		case <-w.doneCh:
			return
		}
	}
}

// stop signals the writer to shut down and closes the sink. Idempotent.
// The goroutine may still be inside a Send; exitedCh marks the point
// after which no write is in flight.
func (w *streamWriter) stop() {
	w.stopOnce.Do(func() {
		close(w.doneCh)
		_ = w.sink.Close()
	})
}

// die is the write-failure path: the peer is unreachable, so the stream
// must disappear from the registry and never be retried.
func (w *streamWriter) die() {
	w.stop()
	metrics.RelayDeadStreamsPruned.Inc()
	if w.onDead != nil {
		w.onDead()
	}
}
