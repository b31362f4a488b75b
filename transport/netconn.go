// File: transport/netconn.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// NetConn adapts a net.Conn to the api.Conn contract, resolving the
// peer address once at construction.

package transport

import (
	"net"
	"time"
)

// UnknownPeer is stored when peer address resolution fails.
const UnknownPeer = "unknown"

// NetConn implements api.Conn over a standard net.Conn.
type NetConn struct {
	conn net.Conn
	peer string
}

// NewNetConn wraps conn, resolving its remote address.
func NewNetConn(conn net.Conn) *NetConn {
	peer := UnknownPeer
	if conn != nil {
		if addr := conn.RemoteAddr(); addr != nil && addr.String() != "" {
			peer = addr.String()
		}
	}
	return &NetConn{conn: conn, peer: peer}
}

// Read fills p from the connection.
func (n *NetConn) Read(p []byte) (int, error) {
	return n.conn.Read(p)
}

// Write sends p over the connection.
func (n *NetConn) Write(p []byte) (int, error) {
	return n.conn.Write(p)
}

// Close closes the underlying connection.
func (n *NetConn) Close() error {
	return n.conn.Close()
}

// PeerAddr returns the remote address resolved at construction.
func (n *NetConn) PeerAddr() string {
	return n.peer
}

// SetReadDeadline bounds future reads.
func (n *NetConn) SetReadDeadline(t time.Time) error {
	return n.conn.SetReadDeadline(t)
}

// SetWriteDeadline bounds future writes.
func (n *NetConn) SetWriteDeadline(t time.Time) error {
	return n.conn.SetWriteDeadline(t)
}
