package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/momentics/netsess/api"
	"github.com/momentics/netsess/fake"
)

func TestStoreAddGetRemove(t *testing.T) {
	st := NewStore(10, 4)
	s := newTestSession(t, fake.NewConn())

	require.NoError(t, st.Add(s))
	require.Equal(t, 1, st.Len())

	got, ok := st.Get(s.ID())
	require.True(t, ok)
	require.Same(t, s, got)

	st.Remove(s.ID())
	_, ok = st.Get(s.ID())
	require.False(t, ok)
	require.Equal(t, 0, st.Len())

	// Removing twice must not corrupt the count.
	st.Remove(s.ID())
	require.Equal(t, 0, st.Len())
}

func TestStoreCeiling(t *testing.T) {
	st := NewStore(2, 4)
	a := newTestSession(t, fake.NewConn())
	b := newTestSession(t, fake.NewConn())
	c := newTestSession(t, fake.NewConn())

	require.NoError(t, st.Add(a))
	require.NoError(t, st.Add(b))
	require.ErrorIs(t, st.Add(c), api.ErrStoreFull)
	require.Equal(t, 2, st.Len())

	st.Remove(a.ID())
	require.NoError(t, st.Add(c))
}

func TestStoreRange(t *testing.T) {
	st := NewStore(10, 4)
	for i := 0; i < 5; i++ {
		require.NoError(t, st.Add(newTestSession(t, fake.NewConn())))
	}
	seen := 0
	st.Range(func(*Session) { seen++ })
	require.Equal(t, 5, seen)
}

func TestStoreSweepEvictsIdle(t *testing.T) {
	st := NewStore(10, 4)
	idle := newTestSession(t, fake.NewConn(), WithIdleTimeout(20*time.Millisecond))
	live := newTestSession(t, fake.NewConn(), WithIdleTimeout(time.Hour))
	require.NoError(t, st.Add(idle))
	require.NoError(t, st.Add(live))

	time.Sleep(40 * time.Millisecond)
	victims := st.Sweep()
	require.Len(t, victims, 1)
	require.Same(t, idle, victims[0])

	require.Equal(t, 1, st.Len())
	require.True(t, idle.Halted())
	require.False(t, idle.Connected())
	require.True(t, live.IsActive())
}

func TestStoreSweepEvictsDisconnected(t *testing.T) {
	st := NewStore(10, 4)
	s := newTestSession(t, fake.NewConn())
	require.NoError(t, st.Add(s))

	s.MarkDisconnected()
	victims := st.Sweep()
	require.Len(t, victims, 1)
	require.Equal(t, 0, st.Len())
}

func TestStoreDefaults(t *testing.T) {
	st := NewStore(0, 0)
	require.Equal(t, DefaultMaxSessions, st.Cap())
	require.Equal(t, 0, st.Len())
}
