package workers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOutbox_PopKeepsPushOrder(t *testing.T) {
	req := require.New(t)
	outbox := NewOutbox()

	// Given three queued lines
	req.Equal(1, outbox.Push("a"))
	req.Equal(2, outbox.Push("b"))
	req.Equal(3, outbox.Push("c"))

	// When popping them
	var got []string
	for {
		line, ok, open := outbox.Pop()
		if !ok {
			req.True(open)
			break
		}
		got = append(got, line)
	}

	// Then the order is preserved
	req.Equal([]string{"a", "b", "c"}, got)
	req.Zero(outbox.Len())
}

func TestOutbox_ReadySignalsPush(t *testing.T) {
	req := require.New(t)
	outbox := NewOutbox()

	select {
	case <-outbox.Ready():
		req.Fail("ready should not fire on an empty outbox")
	default:
	}

	outbox.Push("hello")
	outbox.Push("again")

	select {
	case <-outbox.Ready():
	default:
		req.Fail("ready should fire after a push")
	}
}

func TestOutbox_CloseKeepsQueuedLines(t *testing.T) {
	req := require.New(t)
	outbox := NewOutbox()
	outbox.Push("queued")

	// When the outbox is closed twice
	outbox.Close()
	outbox.Close()

	// Then queued lines are still delivered and later pushes are discarded
	req.Equal(1, outbox.Push("late"))
	line, ok, open := outbox.Pop()
	req.True(ok)
	req.False(open)
	req.Equal("queued", line)

	_, ok, open = outbox.Pop()
	req.False(ok)
	req.False(open)

	select {
	case <-outbox.Ready():
	default:
		req.Fail("ready should stay fired once closed")
	}
}

func TestOutbox_Drain(t *testing.T) {
	req := require.New(t)
	outbox := NewOutbox()
	outbox.Push("x")
	outbox.Push("y")

	req.Equal([]string{"x", "y"}, outbox.Drain())
	req.Empty(outbox.Drain())
}
