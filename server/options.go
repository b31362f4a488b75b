// File: server/options.go
// Package server defines functional options for the accept-loop server.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"crypto/tls"
	"log/slog"

	"github.com/momentics/netsess/control"
	"github.com/momentics/netsess/session"
)

// Option customizes server initialization.
type Option func(*Server)

// WithConfig supplies the runtime configuration.
func WithConfig(cfg *control.Config) Option {
	return func(s *Server) {
		s.cfg = cfg
	}
}

// WithLogger attaches a structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithTLSConfig enables the secure channel path for accepted
// connections. The handshake stays inside crypto/tls; sessions only
// see the byte-oriented capability.
func WithTLSConfig(tc *tls.Config) Option {
	return func(s *Server) {
		s.tlsConf = tc
	}
}

// WithMetrics attaches a metrics registry.
func WithMetrics(mr *control.MetricsRegistry) Option {
	return func(s *Server) {
		s.metrics = mr
	}
}

// WithJournal attaches a diagnostics journal.
func WithJournal(j *control.Journal) Option {
	return func(s *Server) {
		s.journal = j
	}
}

// WithHandler sets the per-session handler launched after Start.
func WithHandler(h Handler) Option {
	return func(s *Server) {
		s.handler = h
	}
}

// WithWorkers controls whether accepted sessions get their worker
// loops started. Disable when the handler drives Receive/Send itself.
func WithWorkers(enabled bool) Option {
	return func(s *Server) {
		s.startWorkers = enabled
	}
}

// WithStore overrides the session registry (tests, shared stores).
func WithStore(st *session.Store) Option {
	return func(s *Server) {
		s.store = st
	}
}
