package workers

import (
	"sync"
)

// Outbox is the unbounded outbound queue of a single peer.
// The Broker is its only producer and the peer's Writer its only consumer.
// Lines come out in the order they were pushed.
type Outbox struct {
	mu     sync.Mutex
	lines  []string
	closed bool
	ready  chan struct{}
}

func NewOutbox() *Outbox {
	return &Outbox{ready: make(chan struct{}, 1)}
}

// Push appends a line and returns the queue length.
// Lines pushed after Close are discarded.
func (o *Outbox) Push(line string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return len(o.lines)
	}
	o.lines = append(o.lines, line)
	select {
	case o.ready <- struct{}{}:
	default:
	}
	return len(o.lines)
}

// Pop removes the oldest line.
// ok reports whether a line was returned, open whether the producer may still push.
func (o *Outbox) Pop() (line string, ok bool, open bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.lines) == 0 {
		return "", false, !o.closed
	}
	line = o.lines[0]
	o.lines[0] = ""
	o.lines = o.lines[1:]
	return line, true, !o.closed
}

// Ready fires after a Push and stays fired once the outbox is closed.
func (o *Outbox) Ready() <-chan struct{} {
	return o.ready
}

// Close marks the end of the stream. Queued lines can still be popped.
func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	close(o.ready)
}

// Drain empties the queue and returns what was left in it.
func (o *Outbox) Drain() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	rest := o.lines
	o.lines = nil
	return rest
}

func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.lines)
}
