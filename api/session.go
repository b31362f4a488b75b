// File: api/session.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "time"

// Stats is a point-in-time snapshot of a session's traffic counters.
type Stats struct {
	BytesSent       uint64
	BytesReceived   uint64
	PacketsSent     uint64
	PacketsReceived uint64
}

// GracefulShutdown unifies orderly teardown across components.
type GracefulShutdown interface {
	// Shutdown stops internal services and releases owned resources.
	Shutdown() error
}

// SessionInfo describes a session for diagnostics consumers.
type SessionInfo struct {
	ID            string
	PeerAddr      string
	CreatedAt     time.Time
	LastActivity  time.Time
	Connected     bool
	Authenticated bool
	Stats         Stats
}
