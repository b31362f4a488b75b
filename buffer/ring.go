// File: buffer/ring.go
// Package buffer implements fixed-capacity byte buffers for session I/O.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Ring is a bounded circular byte buffer with no internal locking.
// The owning session guarantees exclusive access; the invariant
// AvailableRead()+AvailableWrite() == Cap() holds after every operation.

package buffer

import "github.com/momentics/netsess/api"

// Ring is a fixed-capacity circular byte buffer.
type Ring struct {
	data     []byte
	size     int
	readPos  int
	writePos int
}

// NewRing allocates a ring buffer holding up to capacity bytes.
func NewRing(capacity int) (*Ring, error) {
	if capacity <= 0 {
		return nil, api.ErrInvalidArgument
	}
	return &Ring{data: make([]byte, capacity)}, nil
}

// Write copies p into the ring. Writes are all-or-nothing: if p does
// not fit in the free space, nothing is copied and ErrBufferFull is
// returned. An empty p is a no-op.
func (r *Ring) Write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if len(p) > r.AvailableWrite() {
		return api.ErrBufferFull
	}
	n := copy(r.data[r.writePos:], p)
	if n < len(p) {
		copy(r.data, p[n:])
	}
	r.writePos = (r.writePos + len(p)) % len(r.data)
	r.size += len(p)
	return nil
}

// Read copies up to len(p) buffered bytes into p and returns the
// count. Returns 0 when the ring is empty; that is not an error.
func (r *Ring) Read(p []byte) int {
	n := min(len(p), r.size)
	if n == 0 {
		return 0
	}
	k := copy(p[:n], r.data[r.readPos:])
	if k < n {
		copy(p[k:n], r.data)
	}
	r.readPos = (r.readPos + n) % len(r.data)
	r.size -= n
	return n
}

// Skip discards up to n buffered bytes and returns the count dropped.
func (r *Ring) Skip(n int) int {
	if n > r.size {
		n = r.size
	}
	if n <= 0 {
		return 0
	}
	r.readPos = (r.readPos + n) % len(r.data)
	r.size -= n
	return n
}

// Clear resets the ring to empty.
func (r *Ring) Clear() {
	r.size = 0
	r.readPos = 0
	r.writePos = 0
}

// AvailableRead returns the number of buffered bytes.
func (r *Ring) AvailableRead() int {
	return r.size
}

// AvailableWrite returns the free space in bytes.
func (r *Ring) AvailableWrite() int {
	return len(r.data) - r.size
}

// Len is an alias for AvailableRead.
func (r *Ring) Len() int {
	return r.size
}

// Cap returns the fixed capacity.
func (r *Ring) Cap() int {
	return len(r.data)
}
