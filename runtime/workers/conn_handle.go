package workers

import (
	"chat-relay/domain/event"
	"net"
	"sync/atomic"
)

// SharedConn counts the holders of a socket.
// The Connection Handler owns the first reference and hands a second one to the Broker:
// the socket is closed when the last holder releases it.
type SharedConn struct {
	conn net.Conn
	refs atomic.Int32
}

func NewSharedConn(conn net.Conn) *SharedConn {
	c := &SharedConn{conn: conn}
	c.refs.Store(1)
	return c
}

// Acquire returns a new reference on the same socket.
func (c *SharedConn) Acquire() event.ConnHandle {
	c.refs.Add(1)
	return c
}

func (c *SharedConn) Write(p []byte) (int, error) {
	return c.conn.Write(p)
}

func (c *SharedConn) Release() error {
	if c.refs.Add(-1) == 0 {
		return c.conn.Close()
	}
	return nil
}
