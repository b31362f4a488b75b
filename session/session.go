// File: session/session.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Core session implementation: state, caller-facing I/O, and the
// two-phase Stop/Close teardown. The state mutex covers flags and
// counters only; blocking transport calls are serialized by separate
// per-direction mutexes so a stalled peer cannot starve state queries.

package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/momentics/netsess/api"
	"github.com/momentics/netsess/buffer"
	"github.com/momentics/netsess/queue"
	"github.com/momentics/netsess/transport"
)

// Defaults for session construction.
const (
	DefaultBufferSize    = 8192
	DefaultQueueCapacity = 100
	DefaultIdleTimeout   = 3600 * time.Second
	DefaultMaxSessions   = 1000
	DefaultJoinTimeout   = 5 * time.Second
	DefaultPollInterval  = 200 * time.Millisecond
)

// Option customizes session construction.
type Option func(*Session)

// WithBufferSize sets the per-direction ring buffer capacity in bytes.
func WithBufferSize(n int) Option {
	return func(s *Session) { s.bufferSize = n }
}

// WithQueueCapacity sets the outbound message queue capacity.
func WithQueueCapacity(n int) Option {
	return func(s *Session) { s.queueCapacity = n }
}

// WithIdleTimeout sets the inactivity window after which the session
// counts as timed out.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Session) { s.idleTimeout = d }
}

// WithJoinTimeout bounds how long Stop waits for workers to exit.
func WithJoinTimeout(d time.Duration) Option {
	return func(s *Session) { s.joinTimeout = d }
}

// WithPollInterval sets how often worker loops re-check the halt flag
// while blocked in transport reads.
func WithPollInterval(d time.Duration) Option {
	return func(s *Session) { s.pollEvery = d }
}

// WithSecureChannel routes all session I/O through an encrypted
// channel instead of the plain transport handle.
func WithSecureChannel(ch api.Channel) Option {
	return func(s *Session) { s.channel = ch }
}

// WithLogger attaches a structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// Session aggregates one connection's transport handle, channel,
// buffers, queue, counters, and lifecycle state.
type Session struct {
	id   string
	peer string

	conn    api.Conn
	channel api.Channel

	sendBuf *buffer.Ring
	recvBuf *buffer.Ring
	outq    *queue.Bounded[[]byte]
	scratch *buffer.BytePool

	mu     sync.Mutex // state: flags and counters
	sendMu sync.Mutex // serializes outbound transport calls
	recvMu sync.Mutex // serializes inbound transport calls
	rbMu   sync.Mutex // guards recvBuf (worker producer, caller consumer)

	halted        bool
	connected     bool
	authenticated bool
	workersOn     bool

	bytesSent       uint64
	bytesReceived   uint64
	packetsSent     uint64
	packetsReceived uint64

	createdAt    time.Time
	lastActivity atomic.Int64 // unix nanoseconds

	bufferSize    int
	queueCapacity int
	idleTimeout   time.Duration
	joinTimeout   time.Duration
	pollEvery     time.Duration

	done      chan struct{}
	stopOnce  sync.Once
	closeOnce sync.Once
	stopErr   error
	wg        sync.WaitGroup

	log *slog.Logger
}

// New builds a session around an accepted transport handle. On any
// construction failure everything already acquired, including the
// handle itself, is released before returning.
func New(conn api.Conn, opts ...Option) (*Session, error) {
	if conn == nil {
		return nil, api.ErrInvalidArgument
	}
	s := &Session{
		id:            uuid.NewString(),
		conn:          conn,
		connected:     true,
		bufferSize:    DefaultBufferSize,
		queueCapacity: DefaultQueueCapacity,
		idleTimeout:   DefaultIdleTimeout,
		joinTimeout:   DefaultJoinTimeout,
		pollEvery:     DefaultPollInterval,
		done:          make(chan struct{}),
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.channel == nil {
		s.channel = transport.NewPlainChannel(conn)
	}

	ok := false
	defer func() {
		if ok {
			return
		}
		if s.outq != nil {
			s.outq.Close()
		}
		_ = conn.Close()
	}()

	var err error
	if s.sendBuf, err = buffer.NewRing(s.bufferSize); err != nil {
		return nil, fmt.Errorf("send buffer: %w", err)
	}
	if s.recvBuf, err = buffer.NewRing(s.bufferSize); err != nil {
		return nil, fmt.Errorf("recv buffer: %w", err)
	}
	if s.outq, err = queue.New[[]byte](s.queueCapacity); err != nil {
		return nil, fmt.Errorf("message queue: %w", err)
	}
	s.scratch = buffer.NewBytePool(s.bufferSize)

	s.peer = conn.PeerAddr()
	if s.peer == "" {
		s.peer = transport.UnknownPeer
	}
	s.createdAt = time.Now()
	s.lastActivity.Store(s.createdAt.UnixNano())
	s.log = s.log.With("session", s.id, "peer", s.peer)

	ok = true
	return s, nil
}

// ID returns the unique session identifier.
func (s *Session) ID() string { return s.id }

// PeerAddr returns the resolved peer address, or "unknown".
func (s *Session) PeerAddr() string { return s.peer }

// CreatedAt returns the creation timestamp.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// LastActivity returns the most recent activity timestamp.
func (s *Session) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

// UpdateActivity refreshes the activity timestamp.
func (s *Session) UpdateActivity() {
	s.lastActivity.Store(time.Now().UnixNano())
}

// Connected reports whether the transport is still considered live.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Halted reports whether the session has been stopped.
func (s *Session) Halted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.halted
}

// Authenticated reports the externally managed authentication flag.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// SetAuthenticated records the outcome of external authentication.
func (s *Session) SetAuthenticated(v bool) {
	s.mu.Lock()
	s.authenticated = v
	s.mu.Unlock()
}

// HasTimedOut reports whether the idle window has elapsed without
// activity. Pure query; see MarkDisconnected for the effect.
func (s *Session) HasTimedOut() bool {
	if s.idleTimeout <= 0 {
		return false
	}
	return time.Since(s.LastActivity()) > s.idleTimeout
}

// MarkDisconnected degrades the session to disconnected. The session
// keeps existing; callers are expected to Stop and Close it.
func (s *Session) MarkDisconnected() {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
}

// IsActive reports whether the session is connected, not halted, and
// within its idle window. Pure query: eviction is the sweeper's job.
func (s *Session) IsActive() bool {
	s.mu.Lock()
	active := s.connected && !s.halted
	s.mu.Unlock()
	return active && !s.HasTimedOut()
}

// Stats returns a snapshot of the traffic counters.
func (s *Session) Stats() api.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return api.Stats{
		BytesSent:       s.bytesSent,
		BytesReceived:   s.bytesReceived,
		PacketsSent:     s.packetsSent,
		PacketsReceived: s.packetsReceived,
	}
}

// Info returns a diagnostics snapshot.
func (s *Session) Info() api.SessionInfo {
	s.mu.Lock()
	info := api.SessionInfo{
		ID:            s.id,
		PeerAddr:      s.peer,
		CreatedAt:     s.createdAt,
		Connected:     s.connected,
		Authenticated: s.authenticated,
		Stats: api.Stats{
			BytesSent:       s.bytesSent,
			BytesReceived:   s.bytesReceived,
			PacketsSent:     s.packetsSent,
			PacketsReceived: s.packetsReceived,
		},
	}
	s.mu.Unlock()
	info.LastActivity = s.LastActivity()
	return info
}

// QueueLen returns a racy snapshot of the outbound queue depth.
func (s *Session) QueueLen() int {
	return s.outq.Len()
}

// Send writes data synchronously through the channel. It fails fast
// when the session is halted or data is empty, and degrades the
// session to disconnected on transport failure.
func (s *Session) Send(data []byte) error {
	if s == nil {
		return api.ErrInvalidArgument
	}
	if len(data) == 0 {
		return api.ErrInvalidArgument
	}
	if s.Halted() {
		return api.ErrSessionHalted
	}

	s.sendMu.Lock()
	n, err := writeFull(s.channel, data)
	s.sendMu.Unlock()

	if err != nil {
		s.MarkDisconnected()
		return fmt.Errorf("send to %s: %w", s.peer, err)
	}
	s.mu.Lock()
	s.bytesSent += uint64(n)
	s.packetsSent++
	s.mu.Unlock()
	s.UpdateActivity()
	return nil
}

// Receive reads synchronously from the channel into p. io.EOF means
// the peer closed the stream; both EOF and transport errors degrade
// the session to disconnected.
func (s *Session) Receive(p []byte) (int, error) {
	if s == nil || len(p) == 0 {
		return 0, api.ErrInvalidArgument
	}
	if s.Halted() {
		return 0, api.ErrSessionHalted
	}

	s.recvMu.Lock()
	n, err := s.channel.Read(p)
	s.recvMu.Unlock()

	if n > 0 {
		s.mu.Lock()
		s.bytesReceived += uint64(n)
		s.packetsReceived++
		s.mu.Unlock()
		s.UpdateActivity()
	}
	if err != nil {
		s.MarkDisconnected()
		if errors.Is(err, io.EOF) {
			return n, io.EOF
		}
		return n, fmt.Errorf("receive from %s: %w", s.peer, err)
	}
	return n, nil
}

// Start launches the receive and send workers. Returns false if the
// workers already run or the session is halted.
func (s *Session) Start() bool {
	s.mu.Lock()
	if s.workersOn || s.halted {
		s.mu.Unlock()
		return false
	}
	s.workersOn = true
	s.mu.Unlock()

	s.wg.Add(2)
	go s.recvLoop()
	go s.sendLoop()
	return true
}

// Stop halts the session: no new I/O is admitted, blocked transport
// calls are kicked out via immediate deadlines, and started workers
// are joined with a bounded wait. Returns ErrStopTimeout if a worker
// failed to exit within the join window. Idempotent.
func (s *Session) Stop() error {
	if s == nil {
		return nil
	}
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.halted = true
		s.connected = false
		started := s.workersOn
		s.mu.Unlock()

		close(s.done)
		s.outq.Close()

		// Kick workers out of blocking transport calls.
		now := time.Now()
		_ = s.conn.SetReadDeadline(now)
		_ = s.conn.SetWriteDeadline(now)

		if !started {
			return
		}
		joined := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(joined)
		}()
		select {
		case <-joined:
			s.mu.Lock()
			s.workersOn = false
			s.mu.Unlock()
		case <-time.After(s.joinTimeout):
			s.log.Warn("worker join timed out", "timeout", s.joinTimeout)
			s.stopErr = api.ErrStopTimeout
		}
	})
	return s.stopErr
}

// Close stops the session and releases every owned resource exactly
// once: queue first (drained), then buffers, then the transport
// handle. Safe on a nil session.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	var err error
	s.closeOnce.Do(func() {
		err = s.Stop()

		// Closing the handle first is the abort path for a worker the
		// bounded join left behind: a dead transport fails its blocked
		// call instead of letting Close wait on a mutex it holds.
		cerr := s.conn.Close()

		s.outq.Drain()
		s.rbMu.Lock()
		s.recvBuf.Clear()
		s.rbMu.Unlock()
		if !errors.Is(err, api.ErrStopTimeout) {
			// A wedged send worker still holds sendMu; leave the ring
			// to the collector rather than block here.
			s.sendMu.Lock()
			s.sendBuf.Clear()
			s.sendMu.Unlock()
		}

		if cerr != nil && err == nil {
			err = cerr
		}
		s.log.Debug("session closed")
	})
	return err
}

// Shutdown implements api.GracefulShutdown.
func (s *Session) Shutdown() error {
	return s.Close()
}

// writeFull writes all of p, tolerating short writes.
func writeFull(ch api.Channel, p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		n, err := ch.Write(p)
		total += n
		if err != nil {
			return total, err
		}
		if n <= 0 {
			return total, api.ErrTransportClosed
		}
		p = p[n:]
	}
	return total, nil
}
