// Package server implements the HTTP boundary: auth endpoints, the
// push-stream endpoint (SSE or WebSocket), and the send endpoints that
// feed the relay. It resolves cookie sessions to identities and
// enforces the role gate before anything reaches the relay core.
package server
