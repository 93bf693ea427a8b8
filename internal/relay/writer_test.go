package relay

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedSink parks every Send until opened, counting the attempts.
type gatedSink struct {
	mu      sync.Mutex
	sends   int
	release chan struct{}
}

func newGatedSink() *gatedSink {
	return &gatedSink{release: make(chan struct{})}
}

func (g *gatedSink) Send([]byte) error {
	g.mu.Lock()
	g.sends++
	g.mu.Unlock()
	<-g.release
	return nil
}

func (g *gatedSink) Ping() error  { return nil }
func (g *gatedSink) Close() error { return nil }
func (g *gatedSink) open()        { close(g.release) }

func (g *gatedSink) sendCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sends
}

func TestStreamWriter_DeliversInOrder(t *testing.T) {
	sink := newFakeSink()
	writer := newStreamWriter(sink, clockwork.NewRealClock(), nil)
	t.Cleanup(writer.stop)

	writer.sendCh <- []byte("one")
	writer.sendCh <- []byte("two")
	writer.sendCh <- []byte("three")

	for _, want := range []string{"one", "two", "three"} {
		select {
		case frame := <-sink.received:
			assert.Equal(t, want, string(frame))
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func TestStreamWriter_WriteFailureCallsOnDead(t *testing.T) {
	sink := newFakeSink()
	sink.fail()

	deadCh := make(chan struct{})
	writer := newStreamWriter(sink, clockwork.NewRealClock(), func() { close(deadCh) })

	writer.sendCh <- []byte("doomed")

	select {
	case <-deadCh:
	case <-time.After(time.Second):
		t.Fatal("onDead not called after failed write")
	}

	select {
	case <-writer.doneCh:
	case <-time.After(time.Second):
		t.Fatal("writer not stopped after failed write")
	}
	assert.True(t, sink.isClosed())
}

// After stop, buffered frames must be dropped, never written: the
// caller waiting on the exit channel may be tearing the transport down.
func TestStreamWriter_StopDropsBufferedFrames(t *testing.T) {
	sink := newGatedSink()
	writer := newStreamWriter(sink, clockwork.NewRealClock(), nil)

	writer.sendCh <- []byte("in flight")
	require.Eventually(t, func() bool { return sink.sendCount() == 1 }, time.Second, time.Millisecond)

	writer.sendCh <- []byte("buffered one")
	writer.sendCh <- []byte("buffered two")
	writer.stop()
	sink.open()

	select {
	case <-writer.exitedCh:
	case <-time.After(time.Second):
		t.Fatal("writer did not exit after stop")
	}
	assert.Equal(t, 1, sink.sendCount())
}

func TestStreamWriter_StopIsIdempotent(t *testing.T) {
	sink := newFakeSink()
	writer := newStreamWriter(sink, clockwork.NewRealClock(), nil)

	writer.stop()
	writer.stop()
	assert.True(t, sink.isClosed())
}

func TestStreamWriter_PingsOnInterval(t *testing.T) {
	sink := newFakeSink()
	clock := clockwork.NewFakeClock()
	writer := newStreamWriter(sink, clock, nil)
	t.Cleanup(writer.stop)

	// Wait for the writer's ticker to be armed before advancing.
	clock.BlockUntil(1)
	clock.Advance(pingInterval)

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return sink.pings >= 1
	}, time.Second, time.Millisecond)
}

func TestStreamWriter_PingFailureStopsWriter(t *testing.T) {
	sink := newFakeSink()
	sink.fail()
	clock := clockwork.NewFakeClock()

	deadCh := make(chan struct{})
	writer := newStreamWriter(sink, clock, func() { close(deadCh) })

	clock.BlockUntil(1)
	clock.Advance(pingInterval)

	select {
	case <-deadCh:
	case <-time.After(time.Second):
		t.Fatal("onDead not called after failed ping")
	}

	select {
	case <-writer.doneCh:
	case <-time.After(time.Second):
		t.Fatal("writer not stopped after failed ping")
	}
}
