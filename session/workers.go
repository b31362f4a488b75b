// File: session/workers.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Worker loops. The receive worker reads from the channel into pooled
// scratch and appends to the receive ring for ReadBuffered consumers.
// The send worker drains the outbound queue, staging each message
// through the send ring before it hits the transport. Both loops poll
// the halt signal via short read deadlines instead of relying on a
// preempting join.

package session

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/momentics/netsess/api"
)

// EnqueueSend hands data to the send worker through the bounded
// queue, blocking while the queue is full. The data is copied; the
// caller keeps ownership of its slice.
func (s *Session) EnqueueSend(data []byte) error {
	if s == nil {
		return api.ErrInvalidArgument
	}
	if len(data) == 0 {
		return api.ErrInvalidArgument
	}
	if s.Halted() {
		return api.ErrSessionHalted
	}
	msg := make([]byte, len(data))
	copy(msg, data)
	return s.outq.Push(msg)
}

// ReadBuffered drains bytes the receive worker has accumulated.
// Returns 0 when nothing is buffered; that is not an error.
func (s *Session) ReadBuffered(p []byte) (int, error) {
	if s == nil || len(p) == 0 {
		return 0, api.ErrInvalidArgument
	}
	s.rbMu.Lock()
	n := s.recvBuf.Read(p)
	s.rbMu.Unlock()
	return n, nil
}

// Buffered returns the number of received bytes awaiting ReadBuffered.
func (s *Session) Buffered() int {
	s.rbMu.Lock()
	defer s.rbMu.Unlock()
	return s.recvBuf.Len()
}

// recvLoop reads from the channel until halt, EOF, or a transport
// error. Read deadlines are refreshed every iteration so the loop
// observes the halt flag within one poll interval.
func (s *Session) recvLoop() {
	defer s.wg.Done()
	scratch := s.scratch.Get()
	defer s.scratch.Put(scratch)

	for {
		select {
		case <-s.done:
			return
		default:
		}

		_ = s.conn.SetReadDeadline(time.Now().Add(s.pollEvery))
		s.recvMu.Lock()
		n, err := s.channel.Read(scratch)
		s.recvMu.Unlock()

		if n > 0 {
			s.mu.Lock()
			s.bytesReceived += uint64(n)
			s.packetsReceived++
			s.mu.Unlock()
			s.UpdateActivity()
			s.stashReceived(scratch[:n])
		}
		if err == nil {
			continue
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			continue
		}
		if errors.Is(err, io.EOF) {
			s.log.Debug("peer closed stream")
		} else {
			s.log.Debug("receive worker error", "err", err)
		}
		s.MarkDisconnected()
		return
	}
}

// stashReceived appends data to the receive ring, discarding the
// oldest buffered bytes when a slow consumer has let it fill up.
func (s *Session) stashReceived(data []byte) {
	if len(data) > s.recvBuf.Cap() {
		data = data[len(data)-s.recvBuf.Cap():]
	}
	s.rbMu.Lock()
	if len(data) > s.recvBuf.AvailableWrite() {
		s.recvBuf.Skip(len(data) - s.recvBuf.AvailableWrite())
	}
	_ = s.recvBuf.Write(data)
	s.rbMu.Unlock()
}

// sendLoop drains the outbound queue until the queue is closed or the
// transport fails. Pop blocks; Stop closes the queue to release it.
func (s *Session) sendLoop() {
	defer s.wg.Done()
	for {
		msg, err := s.outq.Pop()
		if err != nil {
			return
		}
		select {
		case <-s.done:
			return
		default:
		}
		if err := s.writeStaged(msg); err != nil {
			s.log.Debug("send worker error", "err", err)
			s.MarkDisconnected()
			return
		}
		s.mu.Lock()
		s.bytesSent += uint64(len(msg))
		s.packetsSent++
		s.mu.Unlock()
		s.UpdateActivity()
	}
}

// writeStaged pushes msg through the send ring in ring-sized chunks
// and flushes each chunk to the channel.
func (s *Session) writeStaged(msg []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	out := s.scratch.Get()
	defer s.scratch.Put(out)

	for off := 0; off < len(msg); {
		n := min(len(msg)-off, s.sendBuf.AvailableWrite())
		if err := s.sendBuf.Write(msg[off : off+n]); err != nil {
			return err
		}
		off += n
		for s.sendBuf.Len() > 0 {
			k := s.sendBuf.Read(out)
			if _, err := writeFull(s.channel, out[:k]); err != nil {
				return err
			}
		}
	}
	return nil
}
