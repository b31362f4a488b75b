// File: transport/channel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The two api.Channel variants a session can be constructed with:
// PlainChannel performs I/O directly on the transport handle, while
// SecureChannel performs it on an already-handshaken encrypted stream
// (for example a *tls.Conn) consumed as an opaque capability.

package transport

import (
	"io"

	"github.com/momentics/netsess/api"
)

// PlainChannel routes session I/O through the plain transport handle.
type PlainChannel struct {
	conn api.Conn
}

// NewPlainChannel wraps conn as the session's I/O path.
func NewPlainChannel(conn api.Conn) *PlainChannel {
	return &PlainChannel{conn: conn}
}

// Read fills p from the transport.
func (c *PlainChannel) Read(p []byte) (int, error) {
	return c.conn.Read(p)
}

// Write sends p over the transport.
func (c *PlainChannel) Write(p []byte) (int, error) {
	return c.conn.Write(p)
}

// SecureChannel routes session I/O through an encrypted stream.
// Handshake and certificate machinery live with the caller; the
// session only sees the byte-oriented read/write contract.
type SecureChannel struct {
	rw io.ReadWriter
}

// NewSecureChannel wraps a handshaken encrypted stream.
func NewSecureChannel(rw io.ReadWriter) *SecureChannel {
	return &SecureChannel{rw: rw}
}

// Read fills p from the encrypted stream.
func (c *SecureChannel) Read(p []byte) (int, error) {
	return c.rw.Read(p)
}

// Write sends p over the encrypted stream.
func (c *SecureChannel) Write(p []byte) (int, error) {
	return c.rw.Write(p)
}
