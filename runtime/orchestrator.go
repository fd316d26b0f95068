// Package runtime routes events between peers.
// It orchestrates the relay without containing protocol parsing or socket handling.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	"chat-relay/observability"
	"chat-relay/runtime/workers"
	"context"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Orchestrator wires the event intake, the Broker, the Acceptor and the
// observers, then runs them under the supervisor.
type Orchestrator struct {
	mu                  sync.Mutex
	log                 *slog.Logger
	supervisor          contract.ISupervisor
	listener            net.Listener
	metrics             *observability.RelayMetrics
	censor              contract.Censor
	intake              chan event.Event
	lifecycle           chan event.LifecycleEvent
	sinks               []contract.EventSink
	workers             []contract.Worker
	outboxWarnThreshold int
	sinkTimeout         time.Duration
	metricInterval      time.Duration
}

// NewOrchestrator builds an orchestrator serving listener.
// censor may be nil when moderation is disabled.
func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	listener net.Listener, metrics *observability.RelayMetrics, censor contract.Censor,
	eventBufferSize, lifecycleBufferSize, outboxWarnThreshold int,
	sinkTimeout, metricInterval time.Duration) *Orchestrator {
	return &Orchestrator{
		log:                 log,
		supervisor:          supervisor,
		listener:            listener,
		metrics:             metrics,
		censor:              censor,
		intake:              make(chan event.Event, eventBufferSize),
		lifecycle:           make(chan event.LifecycleEvent, lifecycleBufferSize),
		outboxWarnThreshold: outboxWarnThreshold,
		sinkTimeout:         sinkTimeout,
		metricInterval:      metricInterval,
	}
}

// Add registers lifecycle sinks. Must be called before Start.
func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sinks = append(o.sinks, sinks...)
}

// AddWorker registers side workers (health endpoint...) sharing the relay lifetime.
func (o *Orchestrator) AddWorker(w ...contract.Worker) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.workers = append(o.workers, w...)
}

// Start blocks until the relay stopped.
// Canceling ctx stops the Acceptor, which closes the intake and lets the Broker drain.
func (o *Orchestrator) Start(ctx context.Context) error {
	process, err := observability.NewProcessStats()
	if err != nil {
		o.log.Warn("Process statistics unavailable", "error", err)
		process = nil
	}

	o.mu.Lock()
	broker := NewBroker(o.log, o.intake, o.lifecycle, o.metrics, o.outboxWarnThreshold)
	acceptor := workers.NewAcceptor(o.log, o.listener, o.intake, o.censor, o.metrics)
	fanout := workers.NewLifecycleFanout(o.log, o.lifecycle, o.sinkTimeout, o.sinks...)
	telemetry := workers.NewTelemetryWorker(o.log, o.metrics, process, []workers.NamedChannel{
		{Name: "intake", Channel: o.intake},
		{Name: "lifecycle", Channel: o.lifecycle},
	}, o.metricInterval)

	side := append([]contract.Worker{fanout, telemetry}, o.workers...)
	o.supervisor.AddCritical(broker, acceptor).Add(side...)
	o.mu.Unlock()

	o.log.Info("Starting relay and all supervised workers")
	return o.supervisor.Run(ctx)
}
