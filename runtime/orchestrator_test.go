package runtime_test

import (
	"bufio"
	"chat-relay/domain/event"
	"chat-relay/mocks"
	"chat-relay/observability"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/sink"
	"context"
	"fmt"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestOrchestrator_RegistersWorkers(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	sup := mocks.NewMockISupervisor(ctrl)
	health := mocks.NewMockWorker(ctrl)
	ctx := context.Background()

	// Given the broker and acceptor are critical and three side workers are added
	sup.EXPECT().AddCritical(gomock.Any(), gomock.Any()).Return(sup)
	sup.EXPECT().Add(gomock.Any(), gomock.Any(), health).Return(sup)
	sup.EXPECT().Run(ctx).Return(nil)

	orchestrator := runtime.NewOrchestrator(log, sup, nil, observability.NewRelayMetrics(), nil,
		0, 1, 0, time.Second, time.Second)
	orchestrator.AddWorker(health)

	req.NoError(orchestrator.Start(ctx))
}

func TestOrchestrator_RelaysAndStopsGracefully(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	req.NoError(err)
	timeline := sink.NewTimeline()

	orchestrator := runtime.NewOrchestrator(log, workers.NewSupervisor(log, 10*time.Millisecond),
		listener, observability.NewRelayMetrics(), nil, 0, 16, 0, time.Second, time.Second)
	orchestrator.Add(timeline)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- orchestrator.Start(ctx)
	}()

	// Given bob connected and registered
	bob, err := net.Dial("tcp", listener.Addr().String())
	req.NoError(err)
	defer bob.Close()
	_, err = fmt.Fprint(bob, "bob\n")
	req.NoError(err)
	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()
	_, err = timeline.WaitFor(waitCtx, func(e event.LifecycleEvent) bool {
		_, ok := e.(event.PeerJoined)
		return ok
	})
	req.NoError(err)

	// When bob writes to himself
	_, err = fmt.Fprint(bob, "bob:echo\n")
	req.NoError(err)

	// Then the relay sends the line back
	req.NoError(bob.SetReadDeadline(time.Now().Add(2 * time.Second)))
	line, err := bufio.NewReader(bob).ReadString('\n')
	req.NoError(err)
	req.Equal("from bob: echo\n", line)

	// When the relay is stopped
	cancel()

	// Then every worker returned and bob's departure was observed
	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(3 * time.Second):
		req.Fail("orchestrator should stop after cancellation")
	}
	events := timeline.Events()
	_, ok := events[len(events)-1].(event.PeerLeft)
	req.True(ok)
}
