package workers

import (
	"bufio"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	customerrors "chat-relay/errors"
	"chat-relay/observability"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"unicode/utf8"
)

// ConnectionHandler reads one client socket and turns its lines into Broker events.
// The first line is the peer name, every following line an addressed message.
type ConnectionHandler struct {
	log     *slog.Logger
	conn    net.Conn
	events  chan<- event.Event
	censor  contract.Censor
	metrics *observability.RelayMetrics
}

// NewConnectionHandler builds a handler for an accepted connection.
// censor may be nil when moderation is disabled.
func NewConnectionHandler(log *slog.Logger, conn net.Conn, events chan<- event.Event,
	censor contract.Censor, metrics *observability.RelayMetrics) *ConnectionHandler {
	return &ConnectionHandler{
		log:     log,
		conn:    conn,
		events:  events,
		censor:  censor,
		metrics: metrics,
	}
}

// Handle blocks until the client stops sending.
// Returning closes the shutdown signal handed to the Broker, which stops the paired Writer.
func (h *ConnectionHandler) Handle() error {
	shared := NewSharedConn(h.conn)
	defer func() {
		if err := shared.Release(); err != nil {
			h.log.Debug("Unable to close connection", "remote", h.remoteAddr(), "error", err)
		}
	}()

	reader := bufio.NewReader(h.conn)
	name, err := readLine(reader)
	if err != nil {
		h.metrics.RejectedHandshake.Add(1)
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %w", customerrors.ErrPeerDisconnectedImmediately, err)
		}
		return fmt.Errorf("read peer name: %w", err)
	}
	if name == "" {
		h.metrics.RejectedHandshake.Add(1)
		return customerrors.ErrEmptyPeerName
	}

	session := domain.NewSession(domain.PeerName(name), h.remoteAddr())
	shutdown := make(chan struct{})
	defer close(shutdown)

	h.log.Debug("Peer announced", "peer", session.Name, "session", session.ID, "remote", session.RemoteAddr)
	h.events <- event.NewPeer{
		Session:  session,
		Conn:     shared.Acquire(),
		Shutdown: shutdown,
	}

	for {
		line, err := readLine(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				h.log.Debug("Peer closed its stream", "peer", session.Name, "session", session.ID)
				return nil
			}
			return fmt.Errorf("read from %s: %w", session.Name, err)
		}

		to, body, ok := domain.ParseLine(line)
		if !ok {
			h.metrics.Malformed.Add(1)
			continue
		}
		if h.censor != nil {
			var matched []string
			body, matched = h.censor.Censor(body)
			if len(matched) > 0 {
				h.log.Debug("Message censored", "peer", session.Name, "words", matched)
			}
		}

		h.metrics.Messages.Add(1)
		h.events <- event.Message{From: session.Name, To: to, Body: body}
	}
}

func (h *ConnectionHandler) remoteAddr() string {
	if addr := h.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// readLine returns the next line without its terminator.
// A final line without a trailing newline is returned before io.EOF.
// A line that is not valid UTF-8 ends the stream.
func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	if !utf8.ValidString(line) {
		return "", fmt.Errorf("%w: %q", customerrors.ErrInvalidUTF8, line)
	}
	return trimEOL(line), nil
}

func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
