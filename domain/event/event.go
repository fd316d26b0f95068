package event

import (
	"chat-relay/domain"
	"io"
)

// Event is one unit of work submitted to the Broker.
type Event interface {
	Peer() domain.PeerName
}

// ConnHandle is the write side of a peer connection handed to the Broker.
// Release gives the handle back; the socket is closed once every holder released it.
type ConnHandle interface {
	io.Writer
	Release() error
}

// NewPeer is emitted once a connection announced its name.
// Nothing is ever sent on Shutdown: it is closed when the connection stops reading.
type NewPeer struct {
	Session  domain.Session
	Conn     ConnHandle
	Shutdown <-chan struct{}
}

func (e NewPeer) Peer() domain.PeerName { return e.Session.Name }

// Message is an addressed line received from a peer.
type Message struct {
	From domain.PeerName
	To   []domain.PeerName
	Body string
}

func (e Message) Peer() domain.PeerName { return e.From }

// Disconnect is reported by a Writer once it stopped running.
// Pending holds the lines queued for the peer and never written.
type Disconnect struct {
	Name    domain.PeerName
	Pending []string
}

func (e Disconnect) Peer() domain.PeerName { return e.Name }
