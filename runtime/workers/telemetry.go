package workers

import (
	"chat-relay/observability"
	"context"
	"log/slog"
	"reflect"
	"time"
)

type NamedChannel struct {
	Name    string
	Channel any
}

// ChannelUsage is the sampled length and capacity of a NamedChannel.
type ChannelUsage struct {
	Name     string
	Length   int
	Capacity int
}

// TelemetryWorker periodically logs the relay counters, the process statistics
// and the usage of the registered channels.
// Reading len(channel) and cap(channel) is non-blocking, so this won't interfere
// with other goroutines.
type TelemetryWorker struct {
	log            *slog.Logger
	metrics        *observability.RelayMetrics
	process        *observability.ProcessStats
	channels       []NamedChannel
	metricInterval time.Duration
}

// NewTelemetryWorker builds the worker. process may be nil when process statistics are unavailable.
func NewTelemetryWorker(log *slog.Logger,
	metrics *observability.RelayMetrics,
	process *observability.ProcessStats,
	channels []NamedChannel,
	metricInterval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{
		log:            log,
		metrics:        metrics,
		process:        process,
		channels:       channels,
		metricInterval: metricInterval,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping telemetry")
			return nil
		case <-ticker.C:
			w.report()
		}
	}
}

func (w *TelemetryWorker) report() {
	snapshot := w.Sample()
	w.log.Info("Relay metrics",
		"connections", snapshot.Connections,
		"peers", snapshot.Peers,
		"messages", snapshot.Messages,
		"deliveries", snapshot.Deliveries,
		"dropped", snapshot.Dropped,
		"malformed", snapshot.Malformed,
		"duplicates", snapshot.Duplicates,
		"undelivered", snapshot.Undelivered,
		"write_failures", snapshot.WriteFailures,
		"rss_bytes", snapshot.RSSBytes,
		"cpu_percent", snapshot.CPUPercent,
	)
	for _, usage := range w.ChannelUsages() {
		w.log.Debug("Channel usage", "name", usage.Name, "length", usage.Length, "capacity", usage.Capacity)
	}
}

// Sample takes a snapshot of the counters completed with process statistics.
func (w *TelemetryWorker) Sample() observability.Snapshot {
	snapshot := w.metrics.Snapshot()
	if w.process != nil {
		if err := w.process.Fill(&snapshot); err != nil {
			w.log.Debug("Unable to read process statistics", "error", err)
		}
	}
	return snapshot
}

func (w *TelemetryWorker) ChannelUsages() []ChannelUsage {
	usages := make([]ChannelUsage, 0, len(w.channels))
	for _, nc := range w.channels {
		v := reflect.ValueOf(nc.Channel)
		// Verify if this is a channel
		if v.Kind() != reflect.Chan {
			w.log.Error("Provided object is not a channel", "name", nc.Name)
			continue
		}
		usages = append(usages, ChannelUsage{Name: nc.Name, Length: v.Len(), Capacity: v.Cap()})
	}
	return usages
}
