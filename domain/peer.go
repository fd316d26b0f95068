// Package domain contains core concepts of the chat relay.
// This file defines peers and their sessions.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// PeerName is the self-chosen name a client announces on its first line.
// It is used verbatim as the registry key.
type PeerName string

// Session describes one accepted connection once its peer has announced a name.
type Session struct {
	ID          uuid.UUID
	Name        PeerName
	RemoteAddr  string
	ConnectedAt time.Time
}

func NewSession(name PeerName, remoteAddr string) Session {
	return Session{
		ID:          uuid.New(),
		Name:        name,
		RemoteAddr:  remoteAddr,
		ConnectedAt: time.Now().UTC(),
	}
}
