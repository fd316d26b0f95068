package workers

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	"context"
	"log/slog"
	"time"
)

// LifecycleFanout broadcasts peer lifecycle events to in-process sinks.
//
// It provides best-effort fan-out with no guarantees regarding delivery or retries:
// the Broker drops lifecycle events when the stream is full. It is intended for
// side effects (journal, logs), never for routing.
//
// The fanout keeps consuming after cancellation and returns once the Broker closed
// the stream, so the departures reported during the shutdown drain still reach the sinks.
type LifecycleFanout struct {
	log         *slog.Logger
	lifecycle   <-chan event.LifecycleEvent
	sinkTimeout time.Duration
	sinks       []contract.EventSink
}

func NewLifecycleFanout(log *slog.Logger, lifecycle <-chan event.LifecycleEvent,
	sinkTimeout time.Duration, sinks ...contract.EventSink) *LifecycleFanout {
	return &LifecycleFanout{
		log:         log,
		lifecycle:   lifecycle,
		sinkTimeout: sinkTimeout,
		sinks:       sinks,
	}
}

func (w *LifecycleFanout) Run(ctx context.Context) error {
	for evt := range w.lifecycle {
		w.Fanout(ctx, evt)
	}
	w.log.Debug("Lifecycle stream closed, stopping fanout")
	return nil
}

// Fanout One sink call for each event, each bounded by the sink timeout
func (w *LifecycleFanout) Fanout(ctx context.Context, evt event.LifecycleEvent) {
	for _, sink := range w.sinks {
		sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.log.Warn("Sink failed to consume lifecycle event",
				"sink", sinkName(sink), "peer", evt.PeerSession().Name, "error", err)
		}
		cancel()
	}
}

type namedSink interface {
	Name() string
}

func sinkName(sink contract.EventSink) string {
	if n, ok := sink.(namedSink); ok {
		return n.Name()
	}
	return "sink"
}
