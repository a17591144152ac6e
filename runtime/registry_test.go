package runtime

import (
	"context"
	"direct-chat/domain"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type Conn struct {
	id string
}

func newConn() Conn {
	return Conn{id: uuid.NewString()}
}

func (c Conn) ID() string { return c.id }

func (c Conn) Push(_ context.Context, _ domain.Message) error { return nil }

func TestRegistry_Bind_Then_Lookup(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	conn := newConn()

	// Given no party is bound
	_, ok := registry.Lookup("bob")
	req.False(ok)

	// When bob binds a connection
	registry.Bind("bob", conn)

	// Then the lookup returns it
	found, ok := registry.Lookup("bob")
	req.True(ok)
	req.Equal(conn, found)
	req.Equal(1, registry.Count())
}

func TestRegistry_Bind_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	conn := newConn()

	registry.Bind("bob", conn)
	registry.Bind("bob", conn)

	found, ok := registry.Lookup("bob")
	req.True(ok)
	req.Equal(conn, found)
	req.Len(registry.sessions, 1)
	req.Len(registry.connections, 1)
}

func TestRegistry_Rebind_Replaces_Previous_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first := newConn()
	second := newConn()

	// Given bob reconnects with a second connection
	registry.Bind("bob", first)
	registry.Bind("bob", second)

	// Then the newest connection wins
	found, ok := registry.Lookup("bob")
	req.True(ok)
	req.Equal(second, found)

	// When the stale connection closes afterwards
	registry.Unbind(first)

	// Then the newer binding survives
	found, ok = registry.Lookup("bob")
	req.True(ok)
	req.Equal(second, found)
}

func TestRegistry_Unbind(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	conn := newConn()

	registry.Bind("bob", conn)
	registry.Unbind(conn)

	_, ok := registry.Lookup("bob")
	req.False(ok)
	req.Empty(registry.sessions)
	req.Empty(registry.connections)

	// Unbinding an unknown connection is a no-op
	registry.Unbind(newConn())
	req.Equal(0, registry.Count())
}

func TestRegistry_Connection_Moves_To_New_Identity(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	conn := newConn()

	registry.Bind("alice", conn)
	registry.Bind("bob", conn)

	_, ok := registry.Lookup("alice")
	req.False(ok)
	found, ok := registry.Lookup("bob")
	req.True(ok)
	req.Equal(conn, found)
}

func TestRegistry_Concurrent_Access(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn := newConn()
			identity := domain.PartyID(conn.ID())
			registry.Bind(identity, conn)
			_, _ = registry.Lookup(identity)
			registry.Unbind(conn)
		}()
	}
	wg.Wait()

	req.Equal(0, registry.Count())
}
