// control/journal.go
// Author: momentics <momentics@gmail.com>
//
// Bounded in-memory journal of session lifecycle events for
// diagnostics. Oldest entries are dropped once the journal is full.

package control

import (
	"sync"
	"time"

	eq "github.com/eapache/queue"
)

// Event kinds recorded by the server and sweeper.
const (
	EventCreated   = "created"
	EventDestroyed = "destroyed"
	EventTimeout   = "timeout"
	EventRejected  = "rejected"
	EventError     = "error"
)

// Event is one diagnostics record.
type Event struct {
	At        time.Time
	Kind      string
	SessionID string
	Peer      string
	Detail    string
}

// Journal is a bounded FIFO of events.
type Journal struct {
	mu       sync.Mutex
	events   *eq.Queue
	capacity int
}

// NewJournal creates a journal keeping at most capacity events.
func NewJournal(capacity int) *Journal {
	if capacity <= 0 {
		capacity = 256
	}
	return &Journal{events: eq.New(), capacity: capacity}
}

// Record appends an event, evicting the oldest when full. The
// timestamp is filled in when unset.
func (j *Journal) Record(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	j.mu.Lock()
	j.events.Add(ev)
	for j.events.Length() > j.capacity {
		j.events.Remove()
	}
	j.mu.Unlock()
}

// Len returns the number of retained events.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.events.Length()
}

// Snapshot returns retained events oldest-first.
func (j *Journal) Snapshot() []Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Event, 0, j.events.Length())
	for i := 0; i < j.events.Length(); i++ {
		out = append(out, j.events.Get(i).(Event))
	}
	return out
}
