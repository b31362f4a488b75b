// File: session/doc.go
// Package session owns one connection's transport handle, buffers,
// queue, counters, and lifecycle.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Session is created around an accepted transport handle, optionally
// runs a receive and a send worker, and is degraded (never crashed) by
// peer disconnects, transport errors, and idle timeouts. Teardown is
// two-phase: Stop halts I/O and joins workers, Close releases every
// owned resource exactly once. The Store aggregates sessions, enforces
// the connection ceiling, and sweeps idle ones.
package session
