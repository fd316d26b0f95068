package runtime

import (
	"chat-relay/domain"
	"chat-relay/runtime/workers"
	"testing"

	"github.com/stretchr/testify/require"
)

func newPeer(name domain.PeerName) Peer {
	return Peer{Session: domain.NewSession(name, "pipe"), Outbox: workers.NewOutbox()}
}

func TestRegistry_Add(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given no peer is connected
	req.Zero(registry.Len())

	// When two peers register
	alice := newPeer("alice")
	req.True(registry.Add(alice))
	req.True(registry.Add(newPeer("bob")))

	// Then both are found
	req.Equal(2, registry.Len())
	got, ok := registry.Get("alice")
	req.True(ok)
	req.Equal(alice.Session.ID, got.Session.ID)
	req.Equal([]domain.PeerName{"alice", "bob"}, registry.Names())
}

func TestRegistry_AddDuplicateKeepsFirst(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first := newPeer("alice")
	req.True(registry.Add(first))

	// When the same name is registered again
	req.False(registry.Add(newPeer("alice")))

	// Then the first entry is untouched
	got, ok := registry.Get("alice")
	req.True(ok)
	req.Equal(first.Session.ID, got.Session.ID)
	req.Same(first.Outbox, got.Outbox)
	req.Equal(1, registry.Len())
}

func TestRegistry_Remove(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.Add(newPeer("alice"))

	removed, ok := registry.Remove("alice")
	req.True(ok)
	req.Equal(domain.PeerName("alice"), removed.Session.Name)

	_, ok = registry.Remove("alice")
	req.False(ok)
	_, ok = registry.Get("alice")
	req.False(ok)
	req.Empty(registry.Names())
}

func TestRegistry_Each(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.Add(newPeer("alice"))
	registry.Add(newPeer("bob"))

	var seen []domain.PeerName
	registry.Each(func(p Peer) {
		seen = append(seen, p.Session.Name)
	})
	req.ElementsMatch([]domain.PeerName{"alice", "bob"}, seen)
}
