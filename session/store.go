// File: session/store.go
// Package session
// Author: momentics <momentics@gmail.com>
//
// Sharded, thread-safe session registry with a hard ceiling and an
// idle sweep for high concurrency.

package session

import (
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/momentics/netsess/api"
)

// Store is a sharded registry enforcing the maximum session count.
type Store struct {
	shards []*storeShard
	mask   uint32
	limit  int64
	count  atomic.Int64
}

type storeShard struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore constructs a sharded store holding at most limit sessions.
// limit <= 0 selects DefaultMaxSessions.
func NewStore(limit int, shardCount int) *Store {
	if limit <= 0 {
		limit = DefaultMaxSessions
	}
	if shardCount <= 0 {
		shardCount = 16
	}
	m := nextPowerOfTwo(uint32(shardCount))
	shards := make([]*storeShard, m)
	for i := range shards {
		shards[i] = &storeShard{sessions: make(map[string]*Session)}
	}
	return &Store{shards: shards, mask: m - 1, limit: int64(limit)}
}

// shard picks the correct shard for a given id.
func (st *Store) shard(id string) *storeShard {
	h := fnv32(id)
	return st.shards[h&st.mask]
}

// Add registers s, returning ErrStoreFull at the ceiling.
func (st *Store) Add(s *Session) error {
	if s == nil {
		return api.ErrInvalidArgument
	}
	if st.count.Add(1) > st.limit {
		st.count.Add(-1)
		return api.ErrStoreFull
	}
	sh := st.shard(s.ID())
	sh.mu.Lock()
	sh.sessions[s.ID()] = s
	sh.mu.Unlock()
	return nil
}

// Get fetches a session if present.
func (st *Store) Get(id string) (*Session, bool) {
	sh := st.shard(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	s, ok := sh.sessions[id]
	return s, ok
}

// Remove unregisters the session without stopping it.
func (st *Store) Remove(id string) {
	sh := st.shard(id)
	sh.mu.Lock()
	_, ok := sh.sessions[id]
	delete(sh.sessions, id)
	sh.mu.Unlock()
	if ok {
		st.count.Add(-1)
	}
}

// Range applies fn to all registered sessions.
func (st *Store) Range(fn func(*Session)) {
	for _, sh := range st.shards {
		sh.mu.RLock()
		for _, s := range sh.sessions {
			fn(s)
		}
		sh.mu.RUnlock()
	}
}

// Len returns the current session count.
func (st *Store) Len() int {
	return int(st.count.Load())
}

// Cap returns the session ceiling.
func (st *Store) Cap() int {
	return int(st.limit)
}

// Sweep evicts sessions that have timed out or are otherwise no
// longer active: each victim is marked disconnected, stopped, and
// removed from the store. The caller owns final Close. Returns the
// evicted sessions.
func (st *Store) Sweep() []*Session {
	var victims []*Session
	st.Range(func(s *Session) {
		if s.HasTimedOut() {
			s.MarkDisconnected()
		}
		if !s.IsActive() {
			victims = append(victims, s)
		}
	})
	for _, s := range victims {
		_ = s.Stop()
		st.Remove(s.ID())
	}
	return victims
}

// fnv32 hashes a string to uint32.
func fnv32(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32()
}

// nextPowerOfTwo returns the next power-of-two >= v.
func nextPowerOfTwo(v uint32) uint32 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}
