package workers

import (
	"chat-relay/observability"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestTelemetryWorker_ChannelUsages(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given a buffered channel holding two values and a value that is not a channel
	intake := make(chan int, 5)
	intake <- 1
	intake <- 2
	worker := NewTelemetryWorker(log, observability.NewRelayMetrics(), nil, []NamedChannel{
		{Name: "intake", Channel: intake},
		{Name: "broken", Channel: 42},
	}, time.Second)

	// Then only the channel is reported
	req.Equal([]ChannelUsage{{Name: "intake", Length: 2, Capacity: 5}}, worker.ChannelUsages())
}

func TestTelemetryWorker_Sample(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	metrics := observability.NewRelayMetrics()
	metrics.Deliveries.Add(4)
	process, err := observability.NewProcessStats()
	req.NoError(err)

	snapshot := NewTelemetryWorker(log, metrics, process, nil, time.Second).Sample()

	req.Equal(int64(4), snapshot.Deliveries)
	req.Positive(snapshot.RSSBytes)
}

func TestTelemetryWorker_StopsOnCancel(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := NewTelemetryWorker(log, observability.NewRelayMetrics(), nil, nil, 10*time.Millisecond).Run(ctx)
	req.NoError(err)
}
