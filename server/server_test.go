package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/momentics/netsess/control"
	"github.com/momentics/netsess/session"
)

func testConfig() *control.Config {
	return &control.Config{
		ListenAddr:    "127.0.0.1:0",
		BufferSize:    1024,
		QueueCapacity: 16,
		IdleTimeout:   time.Minute,
		MaxSessions:   4,
		SweepInterval: 20 * time.Millisecond,
		JoinTimeout:   2 * time.Second,
	}
}

// echo pushes whatever the receive worker buffered back through the
// send worker.
func echo(s *session.Session) {
	buf := make([]byte, 256)
	for s.IsActive() {
		n, err := s.ReadBuffered(buf)
		if err != nil {
			return
		}
		if n == 0 {
			time.Sleep(2 * time.Millisecond)
			continue
		}
		if err := s.EnqueueSend(buf[:n]); err != nil {
			return
		}
	}
}

func startServer(t *testing.T, opts ...Option) (*Server, string, context.CancelFunc) {
	t.Helper()
	srv := New(opts...)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down")
		}
	})
	return srv, ln.Addr().String(), cancel
}

func TestServerEchoRoundTrip(t *testing.T) {
	srv, addr, _ := startServer(t,
		WithConfig(testConfig()),
		WithHandler(echo),
	)

	client, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Write([]byte("hello, session"))
	require.NoError(t, err)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(3*time.Second)))
	buf := make([]byte, 64)
	total := 0
	for total < len("hello, session") {
		n, err := client.Read(buf[total:])
		require.NoError(t, err)
		total += n
	}
	require.Equal(t, "hello, session", string(buf[:total]))

	require.Eventually(t, func() bool {
		return srv.Store().Len() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServerCeilingRejects(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSessions = 1
	srv, addr, _ := startServer(t, WithConfig(cfg), WithHandler(echo))

	first, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer first.Close()

	require.Eventually(t, func() bool {
		return srv.Store().Len() == 1
	}, 2*time.Second, 10*time.Millisecond)

	second, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer second.Close()

	require.Eventually(t, func() bool {
		return srv.metrics.Get("sessions_rejected") == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, 1, srv.Store().Len())
}

func TestServerSweepsIdleSessions(t *testing.T) {
	cfg := testConfig()
	cfg.IdleTimeout = 50 * time.Millisecond
	srv, addr, _ := startServer(t, WithConfig(cfg))

	client, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool {
		return srv.Store().Len() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// No traffic: the sweeper must evict the session.
	require.Eventually(t, func() bool {
		return srv.Store().Len() == 0
	}, 3*time.Second, 20*time.Millisecond)
	require.Equal(t, int64(1), srv.metrics.Get("sessions_evicted"))
}

func TestServerShutdownClosesSessions(t *testing.T) {
	srv, addr, cancel := startServer(t, WithConfig(testConfig()), WithHandler(echo))

	client, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool {
		return srv.Store().Len() == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.Eventually(t, func() bool {
		return srv.Store().Len() == 0
	}, 5*time.Second, 20*time.Millisecond)
}

func TestServeReturnsNilOnShutdown(t *testing.T) {
	srv := New(WithConfig(testConfig()))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	res := make(chan error, 1)
	go func() { res <- srv.Serve(ctx, ln) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-res:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after shutdown")
	}
}

func TestServerJournalRecordsLifecycle(t *testing.T) {
	journal := control.NewJournal(32)
	srv, addr, _ := startServer(t,
		WithConfig(testConfig()),
		WithJournal(journal),
	)

	client, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool {
		return srv.Store().Len() == 1
	}, 2*time.Second, 10*time.Millisecond)

	events := journal.Snapshot()
	require.NotEmpty(t, events)
	require.Equal(t, control.EventCreated, events[0].Kind)
}
