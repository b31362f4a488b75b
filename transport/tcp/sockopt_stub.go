//go:build !linux

// File: transport/tcp/sockopt_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package tcp

import (
	"net"
	"time"
)

// tuneTCP falls back to the portable net.TCPConn knobs.
func tuneTCP(tc *net.TCPConn) error {
	if err := tc.SetNoDelay(true); err != nil {
		return err
	}
	if err := tc.SetKeepAlive(true); err != nil {
		return err
	}
	return tc.SetKeepAlivePeriod(60 * time.Second)
}
