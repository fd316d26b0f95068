package event

import (
	"chat-relay/domain"
	"time"
)

// LifecycleEvent is published by the Broker for observers (journal, logs, tests).
// It never feeds back into routing.
type LifecycleEvent interface {
	PeerSession() domain.Session
}

// PeerJoined is published when a name is registered.
type PeerJoined struct {
	Session domain.Session
	At      time.Time
}

func (e PeerJoined) PeerSession() domain.Session { return e.Session }

// PeerRejected is published when a name was already registered.
// The registrant is not told and the existing session is untouched.
type PeerRejected struct {
	Session domain.Session
	At      time.Time
}

func (e PeerRejected) PeerSession() domain.Session { return e.Session }

// PeerLeft is published once the registry entry has been removed.
type PeerLeft struct {
	Session     domain.Session
	At          time.Time
	Undelivered int
}

func (e PeerLeft) PeerSession() domain.Session { return e.Session }
