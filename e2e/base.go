package e2e

import (
	"bufio"
	"chat-relay/infrastructure/grpc/server"
	"chat-relay/observability"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

const readTimeout = 2 * time.Second

type BaseRelaySuite struct {
	suite.Suite
	Config Config
	stop   context.CancelFunc
	done   chan error
}

// SetupSuite loads the environment configuration and starts a relay when none is targeted
func (s *BaseRelaySuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.RelayAddr != "" {
		return
	}

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	healthListener, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	s.Config.RelayAddr = listener.Addr().String()
	s.Config.HealthAddr = healthListener.Addr().String()

	orchestrator := runtime.NewOrchestrator(log, workers.NewSupervisor(log, 50*time.Millisecond),
		listener, observability.NewRelayMetrics(), nil, 0, 64, 0, time.Second, time.Minute)
	orchestrator.AddWorker(server.NewHealthServer(log, healthListener))

	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.done = make(chan error, 1)
	go func() {
		s.done <- orchestrator.Start(ctx)
	}()
}

func (s *BaseRelaySuite) TearDownSuite() {
	if s.stop == nil {
		return
	}
	s.stop()
	select {
	case err := <-s.done:
		s.Require().NoError(err)
	case <-time.After(5 * time.Second):
		s.Fail("in-process relay did not stop")
	}
}

// Step prints a colorized header before running fn
func (s *BaseRelaySuite) Step(name string, fn func()) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
	fn()
}

// Peer is a raw TCP client speaking the relay line protocol.
type Peer struct {
	Name   string
	conn   net.Conn
	reader *bufio.Reader
}

// Connect announces name then waits for its own echo, which proves the registration.
// A name still held by a departing session is ignored by the relay: Connect retries until it is free.
func (s *BaseRelaySuite) Connect(name string) *Peer {
	deadline := time.Now().Add(readTimeout)
	for {
		peer, ok := s.tryConnect(name)
		if ok {
			return peer
		}
		if time.Now().After(deadline) {
			s.FailNow("relay never registered " + name)
		}
	}
}

func (s *BaseRelaySuite) tryConnect(name string) (*Peer, bool) {
	conn, err := net.Dial("tcp", s.Config.RelayAddr)
	s.Require().NoError(err, "Failed to connect to relay at "+s.Config.RelayAddr)
	peer := &Peer{Name: name, conn: conn, reader: bufio.NewReader(conn)}
	s.Send(peer, name)
	s.Send(peer, name+":joined")

	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond)))
	line, err := peer.reader.ReadString('\n')
	if err != nil || line != fmt.Sprintf("from %s: joined\n", name) {
		_ = conn.Close()
		return nil, false
	}
	return peer, true
}

func (s *BaseRelaySuite) Send(peer *Peer, line string) {
	_, err := fmt.Fprintf(peer.conn, "%s\n", line)
	s.Require().NoError(err)
}

// Receive reads one server line without its terminator
func (s *BaseRelaySuite) Receive(peer *Peer) string {
	s.Require().NoError(peer.conn.SetReadDeadline(time.Now().Add(readTimeout)))
	line, err := peer.reader.ReadString('\n')
	s.Require().NoError(err)
	return strings.TrimSuffix(line, "\n")
}

func (s *BaseRelaySuite) Leave(peer *Peer) {
	s.Require().NoError(peer.conn.Close())
}

// GrpcConn initializes a gRPC connection with logging, colors, and JSON debugging
func (s *BaseRelaySuite) GrpcConn(t *testing.T, name string, addr string) *grpc.ClientConn {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	marshaler := protojson.MarshalOptions{
		UseProtoNames:   true,
		Multiline:       true,
		EmitUnpopulated: true,
	}

	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			start := time.Now()
			err := invoker(ctx, method, req, reply, cc, opts...)

			logBuilder := strings.Builder{}
			fmt.Fprintf(&logBuilder, "GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))

			// Log full JSON request/response bodies if E2E_DEBUG_JSON is enabled
			if s.Config.DebugJSON {
				fmt.Fprintln(&logBuilder, "\nREQUEST:")
				fmt.Fprintln(&logBuilder, marshaler.Format(req.(proto.Message)))
				if err != nil {
					fmt.Fprintln(&logBuilder, "ERROR:", err)
				} else {
					fmt.Fprintln(&logBuilder, "RESPONSE:")
					fmt.Fprintln(&logBuilder, marshaler.Format(reply.(proto.Message)))
				}
			}
			t.Log(logBuilder.String())
			return err
		}),
	)
	s.Require().NoError(err, "Failed to connect to gRPC server at "+addr)
	return conn
}
