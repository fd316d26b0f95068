package observability

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRelayMetrics_Snapshot(t *testing.T) {
	req := require.New(t)
	metrics := NewRelayMetrics()

	// Given counters updated from several goroutines
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			metrics.Messages.Add(1)
			metrics.Deliveries.Add(2)
		}()
	}
	wg.Wait()
	metrics.Peers.Add(3)
	metrics.Peers.Add(-1)

	// When taking a snapshot
	snapshot := metrics.Snapshot()

	// Then every counter is reported
	req.Equal(int64(10), snapshot.Messages)
	req.Equal(int64(20), snapshot.Deliveries)
	req.Equal(int64(2), snapshot.Peers)
	req.Zero(snapshot.Dropped)
}

func TestProcessStats_Fill(t *testing.T) {
	req := require.New(t)
	stats, err := NewProcessStats()
	req.NoError(err)

	snapshot := NewRelayMetrics().Snapshot()
	req.NoError(stats.Fill(&snapshot))
	req.Positive(snapshot.RSSBytes)
}
