// File: api/transport.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Transport and channel abstractions for session I/O. A Conn is the
// owned transport handle; a Channel is the byte-oriented read/write
// capability the session actually performs I/O through, so that the
// plain and encrypted paths share one call shape.

package api

import "time"

// Conn abstracts a full-duplex connection handle owned by a session.
type Conn interface {
	// Read reads into a preallocated buffer.
	Read(p []byte) (n int, err error)

	// Write writes buffer contents into the connection.
	Write(p []byte) (n int, err error)

	// Close shuts down the connection and releases the handle.
	Close() error

	// PeerAddr returns the resolved remote address, or "unknown".
	PeerAddr() string

	// SetReadDeadline bounds future Read calls.
	SetReadDeadline(t time.Time) error

	// SetWriteDeadline bounds future Write calls.
	SetWriteDeadline(t time.Time) error
}

// Channel is the byte-oriented I/O capability used by a session.
// Implementations exist for the plain transport and for an opaque
// encrypted stream; callers never branch on which one they hold.
type Channel interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
}
