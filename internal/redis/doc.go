// Package redis implements Redis-backed repositories.
//
// Provides the SessionRepository: opaque session tokens mapped to a
// (username, role) identity with a TTL, so device sessions survive
// server restarts and expire on their own.
package redis
