package workers

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/observability"
	"fmt"
	"io"
	"log/slog"
)

// Writer drains the Outbox of one peer into its socket.
type Writer struct {
	log      *slog.Logger
	session  domain.Session
	conn     event.ConnHandle
	outbox   *Outbox
	shutdown <-chan struct{}
	metrics  *observability.RelayMetrics
}

func NewWriter(log *slog.Logger, session domain.Session, conn event.ConnHandle,
	outbox *Outbox, shutdown <-chan struct{}, metrics *observability.RelayMetrics) *Writer {
	return &Writer{
		log:      log,
		session:  session,
		conn:     conn,
		outbox:   outbox,
		shutdown: shutdown,
		metrics:  metrics,
	}
}

// Run writes queued lines until the outbox is closed and empty or the shutdown signal fires.
// The shutdown signal is checked before each dequeue; a write in progress always completes.
// It returns the lines that were never written and releases the connection handle.
func (w *Writer) Run() (pending []string, err error) {
	defer func() {
		if releaseErr := w.conn.Release(); releaseErr != nil {
			w.log.Debug("Unable to release connection", "peer", w.session.Name, "error", releaseErr)
		}
	}()

	for {
		select {
		case <-w.shutdown:
			return w.outbox.Drain(), nil
		default:
		}

		line, ok, open := w.outbox.Pop()
		if ok {
			if _, err := io.WriteString(w.conn, line); err != nil {
				w.metrics.WriteFailures.Add(1)
				return append([]string{line}, w.outbox.Drain()...),
					fmt.Errorf("%w: %s: %w", errors.ErrWriteFailed, w.session.Name, err)
			}
			w.metrics.Written.Add(1)
			continue
		}
		if !open {
			return nil, nil
		}

		select {
		case <-w.outbox.Ready():
		case <-w.shutdown:
			return w.outbox.Drain(), nil
		}
	}
}
