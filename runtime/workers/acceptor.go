package workers

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	customerrors "chat-relay/errors"
	"chat-relay/observability"
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
)

type closeReader interface {
	CloseRead() error
}

// Acceptor accepts client connections and runs one ConnectionHandler per connection.
// It is the only writer closing the event intake: once the listener stopped and every
// handler returned, the intake is closed and the Broker starts its shutdown.
type Acceptor struct {
	log      *slog.Logger
	listener net.Listener
	events   chan event.Event
	censor   contract.Censor
	metrics  *observability.RelayMetrics
	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
}

func NewAcceptor(log *slog.Logger, listener net.Listener, events chan event.Event,
	censor contract.Censor, metrics *observability.RelayMetrics) *Acceptor {
	return &Acceptor{
		log:      log,
		listener: listener,
		events:   events,
		censor:   censor,
		metrics:  metrics,
		conns:    make(map[net.Conn]struct{}),
	}
}

func (a *Acceptor) Run(ctx context.Context) error {
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		_ = a.listener.Close()
	}()
	defer func() {
		close(stop)
		a.closeReads()
		a.wg.Wait()
		close(a.events)
		a.log.Info("Acceptor stopped, event intake closed")
	}()

	a.log.Info("Accepting connections", "address", a.listener.Addr().String())
	for {
		conn, err := a.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		a.metrics.Connections.Add(1)
		a.track(conn)
		a.wg.Add(1)
		go a.handle(conn)
	}
}

func (a *Acceptor) handle(conn net.Conn) {
	defer a.wg.Done()
	defer a.untrack(conn)

	handler := NewConnectionHandler(a.log, conn, a.events, a.censor, a.metrics)
	err := handler.Handle()
	switch {
	case err == nil:
	case errors.Is(err, customerrors.ErrPeerDisconnectedImmediately),
		errors.Is(err, customerrors.ErrEmptyPeerName):
		a.log.Info("Handshake rejected", "remote", conn.RemoteAddr().String(), "error", err)
	case errors.Is(err, customerrors.ErrInvalidUTF8):
		a.log.Info("Connection ended on invalid text", "remote", conn.RemoteAddr().String(), "error", err)
	case errors.Is(err, net.ErrClosed):
		a.log.Debug("Connection closed during shutdown", "remote", conn.RemoteAddr().String())
	default:
		a.log.Warn("Connection ended with error", "remote", conn.RemoteAddr().String(), "error", err)
	}
}

func (a *Acceptor) track(conn net.Conn) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.conns[conn] = struct{}{}
}

func (a *Acceptor) untrack(conn net.Conn) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.conns, conn)
}

// closeReads ends every pending read so that handlers return.
// Write sides stay open for the Writers still flushing.
func (a *Acceptor) closeReads() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for conn := range a.conns {
		if cr, ok := conn.(closeReader); ok {
			if err := cr.CloseRead(); err == nil {
				continue
			}
		}
		_ = conn.Close()
	}
}
