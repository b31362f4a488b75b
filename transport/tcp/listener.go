// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp provides the TCP listener and per-connection socket
// tuning for netsess. The accept loop itself lives in the server
// package; this package only knows sockets.

package tcp

import (
	"fmt"
	"net"
)

// Listen opens a TCP listening socket on addr.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tcp listen failed: %w", err)
	}
	return ln, nil
}

// Tune applies low-latency socket options to an accepted connection.
// Non-TCP connections are left untouched.
func Tune(conn net.Conn) error {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}
	return tuneTCP(tc)
}
