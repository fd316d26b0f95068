package observability

import (
	"sync/atomic"
)

// RelayMetrics aggregates relay counters.
// Every field is updated atomically so handlers, writers and the Broker can share it
// without touching each other's state.
type RelayMetrics struct {
	Connections       atomic.Int64
	RejectedHandshake atomic.Int64
	Peers             atomic.Int64
	Duplicates        atomic.Int64
	Messages          atomic.Int64
	Malformed         atomic.Int64
	Deliveries        atomic.Int64
	Dropped           atomic.Int64
	Written           atomic.Int64
	WriteFailures     atomic.Int64
	Undelivered       atomic.Int64
}

// Snapshot is a point-in-time copy of RelayMetrics plus process statistics.
type Snapshot struct {
	Connections       int64   `json:"connections"`
	RejectedHandshake int64   `json:"rejected_handshake"`
	Peers             int64   `json:"peers"`
	Duplicates        int64   `json:"duplicates"`
	Messages          int64   `json:"messages"`
	Malformed         int64   `json:"malformed"`
	Deliveries        int64   `json:"deliveries"`
	Dropped           int64   `json:"dropped"`
	Written           int64   `json:"written"`
	WriteFailures     int64   `json:"write_failures"`
	Undelivered       int64   `json:"undelivered"`
	RSSBytes          uint64  `json:"rss_bytes"`
	CPUPercent        float64 `json:"cpu_percent"`
}

func NewRelayMetrics() *RelayMetrics {
	return &RelayMetrics{}
}

func (m *RelayMetrics) Snapshot() Snapshot {
	return Snapshot{
		Connections:       m.Connections.Load(),
		RejectedHandshake: m.RejectedHandshake.Load(),
		Peers:             m.Peers.Load(),
		Duplicates:        m.Duplicates.Load(),
		Messages:          m.Messages.Load(),
		Malformed:         m.Malformed.Load(),
		Deliveries:        m.Deliveries.Load(),
		Dropped:           m.Dropped.Load(),
		Written:           m.Written.Load(),
		WriteFailures:     m.WriteFailures.Load(),
		Undelivered:       m.Undelivered.Load(),
	}
}
