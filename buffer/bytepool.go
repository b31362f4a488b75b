// File: buffer/bytepool.go
// Author: momentics <momentics@gmail.com>

package buffer

import "sync"

// BytePool hands out fixed-size scratch slices for worker read loops.
type BytePool struct {
	pool sync.Pool
	size int
}

// NewBytePool creates a pool of size-byte slices.
func NewBytePool(size int) *BytePool {
	if size <= 0 {
		size = 4096
	}
	return &BytePool{
		pool: sync.Pool{
			New: func() any {
				b := make([]byte, size)
				return &b
			},
		},
		size: size,
	}
}

// Get returns a scratch buffer from the pool.
func (b *BytePool) Get() []byte {
	return *b.pool.Get().(*[]byte)
}

// Put returns a buffer to the pool. Foreign-sized slices are dropped
// so the pool stays uniform.
func (b *BytePool) Put(buf []byte) {
	if cap(buf) != b.size {
		return
	}
	buf = buf[:b.size]
	b.pool.Put(&buf)
}

// Size returns the slice size this pool hands out.
func (b *BytePool) Size() int {
	return b.size
}
