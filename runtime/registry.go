package runtime

import (
	"chat-relay/domain"
	"chat-relay/runtime/workers"
	"slices"

	"github.com/samber/lo"
)

// Peer is a registry entry: a live session and the producer side of its Outbox.
type Peer struct {
	Session domain.Session
	Outbox  *workers.Outbox
}

// Registry maps peer names to their outbox.
// It is owned by the Broker goroutine and carries no lock: nothing else may touch it.
type Registry struct {
	peers map[domain.PeerName]Peer
}

func NewRegistry() *Registry {
	return &Registry{peers: make(map[domain.PeerName]Peer)}
}

// Add registers a peer and reports false when the name is already taken.
func (r *Registry) Add(peer Peer) bool {
	if _, exists := r.peers[peer.Session.Name]; exists {
		return false
	}
	r.peers[peer.Session.Name] = peer
	return true
}

func (r *Registry) Get(name domain.PeerName) (Peer, bool) {
	peer, ok := r.peers[name]
	return peer, ok
}

// Remove deletes the entry and returns it.
func (r *Registry) Remove(name domain.PeerName) (Peer, bool) {
	peer, ok := r.peers[name]
	if ok {
		delete(r.peers, name)
	}
	return peer, ok
}

func (r *Registry) Len() int {
	return len(r.peers)
}

// Names returns the registered names sorted.
func (r *Registry) Names() []domain.PeerName {
	names := lo.Keys(r.peers)
	slices.Sort(names)
	return names
}

// Each calls fn for every entry, in no particular order.
func (r *Registry) Each(fn func(Peer)) {
	for _, peer := range r.peers {
		fn(peer)
	}
}
