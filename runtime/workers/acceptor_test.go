package workers

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/observability"
	"context"
	"fmt"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestAcceptor_HandsConnectionsToHandlersAndClosesIntake(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	req.NoError(err)
	events := make(chan event.Event, 10)
	metrics := observability.NewRelayMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- NewAcceptor(log, listener, events, nil, metrics).Run(ctx)
	}()

	// Given a client connected and named
	client, err := net.Dial("tcp", listener.Addr().String())
	req.NoError(err)
	defer client.Close()
	_, err = fmt.Fprint(client, "alice\n")
	req.NoError(err)

	newPeer, ok := receive(t, events).(event.NewPeer)
	req.True(ok)
	req.Equal(domain.PeerName("alice"), newPeer.Session.Name)

	// When the acceptor is stopped while the client is still connected
	cancel()

	// Then the handler is unblocked, its shutdown fires and the intake is closed
	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(2 * time.Second):
		req.Fail("acceptor should stop once its context is canceled")
	}
	select {
	case <-newPeer.Shutdown:
	default:
		req.Fail("handler shutdown signal should be closed")
	}
	_, open := <-events
	req.False(open)
	req.Equal(int64(1), metrics.Connections.Load())
	req.NoError(newPeer.Conn.Release())
}
