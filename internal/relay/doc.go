// Package relay implements the stream registry and fan-out relay.
//
// A Hub tracks the open push streams of every user by device role and
// broadcasts events to all streams of a (user, role) pair. A single
// actor goroutine owns the registry maps; actual writes to clients
// happen in per-stream writer goroutines, so a stalled or dead client
// never blocks registration or delivery to other recipients.
package relay
