//go:build linux

// File: transport/tcp/sockopt_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux socket tuning via raw setsockopt: disable Nagle and enable
// keepalive probes so dead peers are detected at the kernel level
// before the session-level idle sweep fires.

package tcp

import (
	"net"

	"golang.org/x/sys/unix"
)

const (
	keepIdleSecs     = 60
	keepIntervalSecs = 15
	keepCount        = 4
)

func tuneTCP(tc *net.TCPConn) error {
	raw, err := tc.SyscallConn()
	if err != nil {
		return err
	}
	var serr error
	cerr := raw.Control(func(fd uintptr) {
		s := int(fd)
		if serr = unix.SetsockoptInt(s, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); serr != nil {
			return
		}
		if serr = unix.SetsockoptInt(s, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1); serr != nil {
			return
		}
		if serr = unix.SetsockoptInt(s, unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, keepIdleSecs); serr != nil {
			return
		}
		if serr = unix.SetsockoptInt(s, unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, keepIntervalSecs); serr != nil {
			return
		}
		serr = unix.SetsockoptInt(s, unix.IPPROTO_TCP, unix.TCP_KEEPCNT, keepCount)
	})
	if cerr != nil {
		return cerr
	}
	return serr
}
