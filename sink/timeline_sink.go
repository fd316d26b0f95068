package sink

import (
	"chat-relay/domain/event"
	"context"
	"sync"
)

// Timeline holds a simple local timeline of lifecycle events.
type Timeline struct {
	mu      sync.Mutex
	events  []event.LifecycleEvent
	changed chan struct{}
}

func NewTimeline() *Timeline {
	return &Timeline{changed: make(chan struct{})}
}

func (t *Timeline) Name() string { return "timeline" }

func (t *Timeline) Consume(_ context.Context, e event.LifecycleEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, e)
	close(t.changed)
	t.changed = make(chan struct{})
	return nil
}

func (t *Timeline) Events() []event.LifecycleEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]event.LifecycleEvent(nil), t.events...)
}

// WaitFor blocks until an event matching match was consumed or ctx is done.
func (t *Timeline) WaitFor(ctx context.Context, match func(event.LifecycleEvent) bool) (event.LifecycleEvent, error) {
	seen := 0
	for {
		t.mu.Lock()
		for ; seen < len(t.events); seen++ {
			if match(t.events[seen]) {
				evt := t.events[seen]
				t.mu.Unlock()
				return evt, nil
			}
		}
		changed := t.changed
		t.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
