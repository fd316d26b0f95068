package runtime

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	customerrors "chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/runtime/workers"
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Broker is the single routing loop of the relay.
// It is the only owner of the Registry: every registration, delivery and removal
// happens on its goroutine, one event at a time.
type Broker struct {
	log                 *slog.Logger
	intake              <-chan event.Event
	disconnects         chan event.Disconnect
	lifecycle           chan<- event.LifecycleEvent
	registry            *Registry
	metrics             *observability.RelayMetrics
	outboxWarnThreshold int
}

// NewBroker builds a Broker reading intake.
// lifecycle may be nil when nobody observes sessions; otherwise the Broker closes it when Run returns.
func NewBroker(log *slog.Logger, intake <-chan event.Event, lifecycle chan<- event.LifecycleEvent,
	metrics *observability.RelayMetrics, outboxWarnThreshold int) *Broker {
	return &Broker{
		log:                 log,
		intake:              intake,
		disconnects:         make(chan event.Disconnect),
		lifecycle:           lifecycle,
		registry:            NewRegistry(),
		metrics:             metrics,
		outboxWarnThreshold: outboxWarnThreshold,
	}
}

// Run processes events until the intake is closed.
// It then closes every outbox and waits for each Writer to report before returning.
// The context is not observed: the shutdown is driven by the intake owner.
func (b *Broker) Run(_ context.Context) error {
	if b.lifecycle != nil {
		defer close(b.lifecycle)
	}

	intake := b.intake
	for intake != nil {
		select {
		case evt, ok := <-intake:
			if !ok {
				intake = nil
				continue
			}
			b.Handle(evt)
		case d := <-b.disconnects:
			b.Handle(d)
		}
	}

	b.log.Info("Event intake closed, draining writers", "peers", b.registry.Names())
	b.registry.Each(func(p Peer) {
		b.log.Debug("Closing outbox", "peer", p.Session.Name, "queued", p.Outbox.Len())
		p.Outbox.Close()
	})
	for b.registry.Len() > 0 {
		b.Handle(<-b.disconnects)
	}
	b.log.Info("Broker stopped")
	return nil
}

// Handle applies one event to the registry.
// It must only be called from the goroutine running the Broker.
func (b *Broker) Handle(evt event.Event) {
	switch e := evt.(type) {
	case event.NewPeer:
		b.handleNewPeer(e)
	case event.Message:
		b.handleMessage(e)
	case event.Disconnect:
		b.handleDisconnect(e)
	default:
		b.log.Warn("Unknown event ignored", "type", fmt.Sprintf("%T", evt))
	}
}

func (b *Broker) handleNewPeer(e event.NewPeer) {
	outbox := workers.NewOutbox()
	if !b.registry.Add(Peer{Session: e.Session, Outbox: outbox}) {
		b.metrics.Duplicates.Add(1)
		b.log.Info("Name already registered, connection ignored",
			"peer", e.Session.Name, "session", e.Session.ID, "remote", e.Session.RemoteAddr)
		if err := e.Conn.Release(); err != nil {
			b.log.Debug("Unable to release duplicate connection", "session", e.Session.ID, "error", err)
		}
		b.publish(event.PeerRejected{Session: e.Session, At: time.Now().UTC()})
		return
	}

	b.metrics.Peers.Add(1)
	b.spawn(e, outbox)
	b.log.Info("Peer joined", "peer", e.Session.Name, "session", e.Session.ID, "remote", e.Session.RemoteAddr)
	b.publish(event.PeerJoined{Session: e.Session, At: time.Now().UTC()})
}

// spawn starts the Writer of a freshly registered peer.
// Its Disconnect report is always accepted: the Broker keeps reading it until every Writer reported.
func (b *Broker) spawn(e event.NewPeer, outbox *workers.Outbox) {
	writer := workers.NewWriter(b.log, e.Session, e.Conn, outbox, e.Shutdown, b.metrics)
	go func() {
		pending, err := writer.Run()
		if err != nil {
			b.log.Warn("Writer stopped", "peer", e.Session.Name, "session", e.Session.ID, "error", err)
		}
		b.disconnects <- event.Disconnect{Name: e.Session.Name, Pending: pending}
	}()
}

func (b *Broker) handleMessage(e event.Message) {
	line := domain.FormatDelivery(e.From, e.Body)
	for _, to := range e.To {
		peer, ok := b.registry.Get(to)
		if !ok {
			b.metrics.Dropped.Add(1)
			b.log.Debug("Recipient not connected, message dropped", "peer", e.From, "recipient", to)
			continue
		}
		queued := peer.Outbox.Push(line)
		b.metrics.Deliveries.Add(1)
		if b.outboxWarnThreshold > 0 && queued%b.outboxWarnThreshold == 0 {
			b.log.Warn("Outbox is growing", "peer", to, "session", peer.Session.ID, "queued", queued)
		}
	}
}

func (b *Broker) handleDisconnect(e event.Disconnect) {
	peer, ok := b.registry.Remove(e.Name)
	if !ok {
		panic(fmt.Errorf("%w: %s", customerrors.ErrUnknownPeerDisconnect, e.Name))
	}
	b.metrics.Peers.Add(-1)
	b.metrics.Undelivered.Add(int64(len(e.Pending)))
	b.log.Info("Peer left", "peer", e.Name, "session", peer.Session.ID, "undelivered", len(e.Pending))
	b.publish(event.PeerLeft{Session: peer.Session, At: time.Now().UTC(), Undelivered: len(e.Pending)})
}

// publish never blocks the routing loop: lifecycle events are dropped when the stream is full.
func (b *Broker) publish(evt event.LifecycleEvent) {
	if b.lifecycle == nil {
		return
	}
	select {
	case b.lifecycle <- evt:
	default:
		b.log.Debug("Lifecycle event lost", "peer", evt.PeerSession().Name)
	}
}
