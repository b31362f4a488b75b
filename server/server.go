// File: server/server.go
// Package server runs the accept loop, enforces the session ceiling,
// and sweeps idle sessions.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/momentics/netsess/api"
	"github.com/momentics/netsess/control"
	"github.com/momentics/netsess/session"
	"github.com/momentics/netsess/transport"
	"github.com/momentics/netsess/transport/tcp"
)

// Handler runs application logic for one started session. It must
// return when the session is no longer active.
type Handler func(*session.Session)

// Server accepts connections and owns the resulting sessions.
type Server struct {
	cfg     *control.Config
	log     *slog.Logger
	tlsConf *tls.Config
	store   *session.Store
	metrics *control.MetricsRegistry
	journal *control.Journal
	handler Handler

	startWorkers bool

	mu     sync.Mutex
	ln     net.Listener
	closed bool
	wg     sync.WaitGroup
}

// New constructs a server from options. Missing pieces get defaults.
func New(opts ...Option) *Server {
	s := &Server{
		log:          slog.Default(),
		metrics:      control.NewMetricsRegistry(),
		journal:      control.NewJournal(256),
		startWorkers: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg == nil {
		s.cfg = &control.Config{
			ListenAddr:    ":9040",
			BufferSize:    session.DefaultBufferSize,
			QueueCapacity: session.DefaultQueueCapacity,
			IdleTimeout:   session.DefaultIdleTimeout,
			MaxSessions:   session.DefaultMaxSessions,
			SweepInterval: 30 * time.Second,
			JoinTimeout:   session.DefaultJoinTimeout,
		}
	}
	if s.store == nil {
		s.store = session.NewStore(s.cfg.MaxSessions, 16)
	}
	return s
}

// Store exposes the session registry.
func (s *Server) Store() *session.Store {
	return s.store
}

// Addr returns the bound listener address, or "" before listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// ListenAndServe binds the configured address and serves until ctx is
// done or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := tcp.Listen(s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs the accept loop on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return api.ErrTransportClosed
	}
	s.ln = ln
	s.mu.Unlock()

	s.log.Info("listening", "addr", ln.Addr().String())

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	s.wg.Add(1)
	go s.sweeper(sweepCtx)

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() || errors.Is(err, net.ErrClosed) {
				break
			}
			s.log.Warn("accept failed", "err", err)
			s.metrics.Inc("accept_errors")
			continue
		}
		s.acceptOne(conn)
	}

	stopSweep()
	s.closeAllSessions()
	s.wg.Wait()
	return nil
}

// acceptOne tunes, wraps, registers, and starts one accepted conn.
func (s *Server) acceptOne(raw net.Conn) {
	if err := tcp.Tune(raw); err != nil {
		s.log.Debug("socket tuning failed", "err", err)
	}

	var (
		nc   *transport.NetConn
		opts []session.Option
	)
	opts = append(opts,
		session.WithBufferSize(s.cfg.BufferSize),
		session.WithQueueCapacity(s.cfg.QueueCapacity),
		session.WithIdleTimeout(s.cfg.IdleTimeout),
		session.WithJoinTimeout(s.cfg.JoinTimeout),
		session.WithLogger(s.log),
	)
	if s.tlsConf != nil {
		tc := tls.Server(raw, s.tlsConf)
		nc = transport.NewNetConn(tc)
		opts = append(opts, session.WithSecureChannel(transport.NewSecureChannel(tc)))
	} else {
		nc = transport.NewNetConn(raw)
	}

	sess, err := session.New(nc, opts...)
	if err != nil {
		s.log.Warn("session create failed", "err", err)
		s.metrics.Inc("create_errors")
		return
	}

	if err := s.store.Add(sess); err != nil {
		s.log.Warn("session ceiling reached, rejecting", "peer", sess.PeerAddr())
		s.metrics.Inc("sessions_rejected")
		s.journal.Record(control.Event{
			Kind: control.EventRejected, SessionID: sess.ID(), Peer: sess.PeerAddr(),
		})
		_ = sess.Close()
		return
	}

	if s.startWorkers {
		sess.Start()
	}
	s.metrics.Inc("sessions_created")
	s.journal.Record(control.Event{
		Kind: control.EventCreated, SessionID: sess.ID(), Peer: sess.PeerAddr(),
	})
	s.log.Info("session created", "session", sess.ID(), "peer", sess.PeerAddr())

	if s.handler != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handler(sess)
			s.retire(sess, control.EventDestroyed, "handler finished")
		}()
	}
}

// sweeper periodically evicts idle and dead sessions.
func (s *Server) sweeper(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, sess := range s.store.Sweep() {
				s.metrics.Inc("sessions_evicted")
				s.journal.Record(control.Event{
					Kind: control.EventTimeout, SessionID: sess.ID(), Peer: sess.PeerAddr(),
				})
				s.log.Info("session evicted", "session", sess.ID(), "peer", sess.PeerAddr())
				_ = sess.Close()
			}
		}
	}
}

// retire removes and closes a session once.
func (s *Server) retire(sess *session.Session, kind, detail string) {
	if _, ok := s.store.Get(sess.ID()); ok {
		s.store.Remove(sess.ID())
		s.metrics.Inc("sessions_destroyed")
		s.journal.Record(control.Event{
			Kind: kind, SessionID: sess.ID(), Peer: sess.PeerAddr(), Detail: detail,
		})
	}
	_ = sess.Close()
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// closeAllSessions stops and releases every registered session.
func (s *Server) closeAllSessions() {
	var all []*session.Session
	s.store.Range(func(sess *session.Session) {
		all = append(all, sess)
	})
	for _, sess := range all {
		s.retire(sess, control.EventDestroyed, "server shutdown")
	}
}

// Shutdown closes the listener; Serve then drains sessions and
// returns. Idempotent.
func (s *Server) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	ln := s.ln
	s.mu.Unlock()
	if ln != nil {
		ln.Close()
	}
}
