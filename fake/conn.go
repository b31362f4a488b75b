// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the api.Conn and
// api.Channel contracts.

package fake

import (
	"bytes"
	"io"
	"sync"
	"time"

	"github.com/momentics/netsess/api"
)

// timeoutError satisfies net.Error with Timeout() == true, matching
// what deadline-bounded reads on a real socket return.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// Conn is a scripted in-memory implementation of api.Conn.
type Conn struct {
	mu sync.Mutex

	peer    string
	pending [][]byte
	eof     bool
	readErr error

	written  bytes.Buffer
	writeErr error

	closed       bool
	readDeadline time.Time
}

// NewConn creates a fake connection with default settings.
func NewConn() *Conn {
	return &Conn{peer: "203.0.113.9:4120"}
}

// Read pops scripted payloads. With no data it blocks until data
// arrives, EOF/error is scripted, the deadline passes, or Close.
func (c *Conn) Read(p []byte) (int, error) {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return 0, api.ErrTransportClosed
		}
		if c.readErr != nil {
			err := c.readErr
			c.mu.Unlock()
			return 0, err
		}
		if len(c.pending) > 0 {
			chunk := c.pending[0]
			n := copy(p, chunk)
			if n < len(chunk) {
				c.pending[0] = chunk[n:]
			} else {
				c.pending = c.pending[1:]
			}
			c.mu.Unlock()
			return n, nil
		}
		if c.eof {
			c.mu.Unlock()
			return 0, io.EOF
		}
		dl := c.readDeadline
		c.mu.Unlock()

		if !dl.IsZero() && !time.Now().Before(dl) {
			return 0, timeoutError{}
		}
		time.Sleep(time.Millisecond)
	}
}

// Write records p unless a failure is scripted.
func (c *Conn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, api.ErrTransportClosed
	}
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	c.written.Write(p)
	return len(p), nil
}

// Close marks the connection closed.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// PeerAddr returns the configured peer address.
func (c *Conn) PeerAddr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peer
}

// SetReadDeadline bounds blocking reads.
func (c *Conn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	c.readDeadline = t
	c.mu.Unlock()
	return nil
}

// SetWriteDeadline is accepted and ignored; fake writes never block.
func (c *Conn) SetWriteDeadline(time.Time) error {
	return nil
}

// QueueRead scripts a payload for a future Read.
func (c *Conn) QueueRead(p []byte) {
	cp := make([]byte, len(p))
	copy(cp, p)
	c.mu.Lock()
	c.pending = append(c.pending, cp)
	c.mu.Unlock()
}

// SetEOF makes Read return io.EOF once pending data is drained.
func (c *Conn) SetEOF() {
	c.mu.Lock()
	c.eof = true
	c.mu.Unlock()
}

// SetReadError scripts a read failure.
func (c *Conn) SetReadError(err error) {
	c.mu.Lock()
	c.readErr = err
	c.mu.Unlock()
}

// SetWriteError scripts a write failure.
func (c *Conn) SetWriteError(err error) {
	c.mu.Lock()
	c.writeErr = err
	c.mu.Unlock()
}

// SetPeer overrides the reported peer address.
func (c *Conn) SetPeer(peer string) {
	c.mu.Lock()
	c.peer = peer
	c.mu.Unlock()
}

// Written returns a copy of everything written so far.
func (c *Conn) Written() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]byte, c.written.Len())
	copy(out, c.written.Bytes())
	return out
}

// Closed reports whether Close was called.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// BlockedChannel is an api.Channel whose writes block until released.
// Used to exercise bounded worker joins.
type BlockedChannel struct {
	release chan struct{}
	once    sync.Once
}

// NewBlockedChannel creates a channel with all writes parked.
func NewBlockedChannel() *BlockedChannel {
	return &BlockedChannel{release: make(chan struct{})}
}

// Read blocks until Release, then reports EOF.
func (b *BlockedChannel) Read([]byte) (int, error) {
	<-b.release
	return 0, io.EOF
}

// Write blocks until Release, then fails.
func (b *BlockedChannel) Write(p []byte) (int, error) {
	<-b.release
	return 0, api.ErrTransportClosed
}

// Release unparks all blocked calls.
func (b *BlockedChannel) Release() {
	b.once.Do(func() { close(b.release) })
}
