package control

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJournalRecordAndSnapshot(t *testing.T) {
	j := NewJournal(8)
	j.Record(Event{Kind: EventCreated, SessionID: "a"})
	j.Record(Event{Kind: EventTimeout, SessionID: "b"})

	events := j.Snapshot()
	require.Len(t, events, 2)
	require.Equal(t, EventCreated, events[0].Kind)
	require.Equal(t, EventTimeout, events[1].Kind)
	require.False(t, events[0].At.IsZero())
}

func TestJournalBounded(t *testing.T) {
	j := NewJournal(4)
	for i := 0; i < 10; i++ {
		j.Record(Event{Kind: EventCreated, SessionID: fmt.Sprintf("s%d", i)})
	}
	require.Equal(t, 4, j.Len())

	events := j.Snapshot()
	require.Equal(t, "s6", events[0].SessionID)
	require.Equal(t, "s9", events[3].SessionID)
}

func TestMetricsRegistry(t *testing.T) {
	mr := NewMetricsRegistry()
	mr.Inc("sessions_created")
	mr.Inc("sessions_created")
	mr.Add("sessions_evicted", 3)

	require.Equal(t, int64(2), mr.Get("sessions_created"))
	require.Equal(t, int64(3), mr.Get("sessions_evicted"))

	snap := mr.Snapshot()
	require.Equal(t, int64(2), snap["sessions_created"])
	require.False(t, mr.LastUpdated().IsZero())
}
