package runtime

import (
	"direct-chat/contract"
	"direct-chat/domain"
	"sync"
)

var _ contract.IRegistry = (*Registry)(nil)

// Registry maps each party to the one connection currently bound to it.
// The lock is only held for map access, never while a connection is used.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[domain.PartyID]contract.Connection // map party -> connection
	connections map[string]domain.PartyID              // map connection id -> party
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[domain.PartyID]contract.Connection),
		connections: make(map[string]domain.PartyID),
	}
}

// Bind registers conn as the live handle of identity.
// A previous connection of the same identity is replaced but not closed.
func (r *Registry) Bind(identity domain.PartyID, conn contract.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if previous, ok := r.sessions[identity]; ok && previous.ID() != conn.ID() {
		delete(r.connections, previous.ID())
	}
	// The same connection cannot stay bound to two identities
	if owner, ok := r.connections[conn.ID()]; ok && owner != identity {
		delete(r.sessions, owner)
	}
	r.sessions[identity] = conn
	r.connections[conn.ID()] = identity
}

// Unbind removes the binding held by conn, if any.
// A connection that was already replaced by a newer one leaves the newer binding untouched.
func (r *Registry) Unbind(conn contract.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.connections[conn.ID()]
	if !ok {
		return
	}
	delete(r.connections, conn.ID())
	if current, ok := r.sessions[identity]; ok && current.ID() == conn.ID() {
		delete(r.sessions, identity)
	}
}

func (r *Registry) Lookup(identity domain.PartyID) (contract.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.sessions[identity]
	return conn, ok
}

// Count returns the number of bound identities.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
