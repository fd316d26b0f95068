package test

import (
	"bufio"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/sink"
	"context"
	"fmt"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

type client struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func dial(t *testing.T, addr, name string) *client {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	c := &client{t: t, conn: conn, reader: bufio.NewReader(conn)}
	c.send(name)
	return c
}

func (c *client) send(line string) {
	c.t.Helper()
	_, err := fmt.Fprintf(c.conn, "%s\n", line)
	require.NoError(c.t, err)
}

func (c *client) receive() string {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	line, err := c.reader.ReadString('\n')
	require.NoError(c.t, err)
	return line
}

func waitFor(t *testing.T, timeline *sink.Timeline, match func(event.LifecycleEvent) bool) event.LifecycleEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	evt, err := timeline.WaitFor(ctx, match)
	require.NoError(t, err)
	return evt
}

func joined(name domain.PeerName) func(event.LifecycleEvent) bool {
	return func(e event.LifecycleEvent) bool {
		evt, ok := e.(event.PeerJoined)
		return ok && evt.Session.Name == name
	}
}

func left(name domain.PeerName) func(event.LifecycleEvent) bool {
	return func(e event.LifecycleEvent) bool {
		evt, ok := e.(event.PeerLeft)
		return ok && evt.Session.Name == name
	}
}

func Test_Scenario(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	// Reduced to 16 Mo for testing
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)
	defer db.Close()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	req.NoError(err)
	addr := listener.Addr().String()

	moderator, err := moderation.NewModerator([]string{"badger"}, '*', log)
	req.NoError(err)
	metrics := observability.NewRelayMetrics()
	repository := repositories.NewSessionRepository(db, log)
	timeline := sink.NewTimeline()

	orchestrator := runtime.NewOrchestrator(
		log, workers.NewSupervisor(log, 100*time.Millisecond), listener, metrics, moderator,
		0, 64, 10, time.Second, time.Minute,
	)
	orchestrator.Add(sink.NewJournalSink(repository, log), timeline)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- orchestrator.Start(ctx)
	}()

	// 1. alice and bob connect
	alice := dial(t, addr, "alice")
	waitFor(t, timeline, joined("alice"))
	bob := dial(t, addr, "bob")
	waitFor(t, timeline, joined("bob"))

	// 2. alice writes to bob, bob gets exactly that line
	alice.send("bob: hello")
	req.Equal("from alice: hello\n", bob.receive())

	// 3. moderation applies before routing
	alice.send("bob:a badger here")
	req.Equal("from alice: a ****** here\n", bob.receive())

	// 4. a second alice is ignored while the first keeps her stream
	intruder := dial(t, addr, "alice")
	waitFor(t, timeline, func(e event.LifecycleEvent) bool {
		_, ok := e.(event.PeerRejected)
		return ok
	})
	bob.send("alice:only you")
	req.Equal("from bob: only you\n", alice.receive())
	req.NoError(intruder.conn.Close())

	// 5. alice leaves, bob's message to her is dropped and the relay keeps working
	req.NoError(alice.conn.Close())
	waitFor(t, timeline, left("alice"))
	bob.send("alice:still there")
	bob.send("bob:alive")
	req.Equal("from bob: alive\n", bob.receive())

	// 6. graceful stop
	cancel()
	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(5 * time.Second):
		req.Fail("relay did not stop")
	}
	waitFor(t, timeline, left("bob"))

	snapshot := metrics.Snapshot()
	req.Equal(int64(1), snapshot.Dropped)
	req.Equal(int64(1), snapshot.Duplicates)
	req.Equal(int64(0), snapshot.Peers)
	req.Equal(int64(3), snapshot.Connections)

	// 7. the journal kept every session and no message body
	records, err := repository.List(nil)
	req.NoError(err)
	req.Len(records, 3)
	statuses := lo.CountValuesBy(records, func(r repositories.SessionRecord) repositories.SessionStatus {
		return r.Status
	})
	req.Equal(2, statuses[repositories.SessionClosed])
	req.Equal(1, statuses[repositories.SessionRejected])
	for _, r := range records {
		req.NotNil(r.DisconnectedAt)
	}
}
