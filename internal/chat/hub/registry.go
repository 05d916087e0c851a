// Package hub tracks the live connections open on this instance.
package hub

import (
	"context"
	"sync"

	"chat_delivery_service/pkg/metrics"

	"github.com/google/uuid"
)

// Conn a live connection handle
type Conn interface {
	// ID unique per connection for the process lifetime
	ID() string
	// Send queues payload for delivery, must not block past ctx
	Send(ctx context.Context, payload []byte) error
}

// Registry maps account id -> open connections.
// An account entry exists only while it has at least one connection.
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]map[string]Conn
}

// NewRegistry create an empty Registry
func NewRegistry() *Registry {
	return &Registry{conns: make(map[uuid.UUID]map[string]Conn)}
}

// Register add c under accountID, registering the same handle twice is a no-op
func (r *Registry) Register(accountID uuid.UUID, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[accountID]
	if !ok {
		set = make(map[string]Conn)
		r.conns[accountID] = set
	}
	if _, dup := set[c.ID()]; dup {
		return
	}
	set[c.ID()] = c
	metrics.LiveConnections.Inc()
}

// Unregister remove c, idempotent
func (r *Registry) Unregister(accountID uuid.UUID, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[accountID]
	if !ok {
		return
	}
	if _, found := set[c.ID()]; !found {
		return
	}
	delete(set, c.ID())
	metrics.LiveConnections.Dec()
	if len(set) == 0 {
		delete(r.conns, accountID)
	}
}

// ConnectionsFor open connections of one account
func (r *Registry) ConnectionsFor(accountID uuid.UUID) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.conns[accountID]
	out := make([]Conn, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	return out
}

// ConnectionsForMany union of the connections of every account, no duplicates
func (r *Registry) ConnectionsForMany(accountIDs []uuid.UUID) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	out := make([]Conn, 0)
	for _, id := range accountIDs {
		for cid, c := range r.conns[id] {
			if _, dup := seen[cid]; dup {
				continue
			}
			seen[cid] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// Online subset of accountIDs with at least one open connection
func (r *Registry) Online(accountIDs []uuid.UUID) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]uuid.UUID, 0, len(accountIDs))
	for _, id := range accountIDs {
		if len(r.conns[id]) > 0 {
			out = append(out, id)
		}
	}
	return out
}

// Stats number of accounts and connections registered
func (r *Registry) Stats() (accounts, connections int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, set := range r.conns {
		connections += len(set)
	}
	return len(r.conns), connections
}
