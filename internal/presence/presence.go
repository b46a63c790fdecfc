// Package presence tracks which identities currently have a live gateway
// connection.
package presence

import "sync"

// Registry is a concurrency-safe identity ↔ connection table. One live
// entry per identity: a later Join for the same identity replaces the
// earlier connection reference.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]string // identity -> connection id
	byConn map[string]string // connection id -> identity, for exact removal
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]string),
		byConn: make(map[string]string),
	}
}

// Join registers connID as the live connection for identity. If the
// identity was already online, the previous connection id is returned and
// its mapping dropped (last join wins).
func (r *Registry) Join(identity, connID string) (prev string, replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byUser[identity]; ok {
		delete(r.byConn, old)
		prev, replaced = old, true
	}
	r.byUser[identity] = connID
	r.byConn[connID] = identity
	return prev, replaced
}

// Lookup returns the live connection for identity, if any.
func (r *Registry) Lookup(identity string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.byUser[identity]
	return connID, ok
}

// Disconnect removes the entry whose connection is connID and returns the
// identity it belonged to. Removal is exact: if the identity has since
// re-joined on another connection, nothing is removed. No-op when no entry
// matches.
func (r *Registry) Disconnect(connID string) (identity string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok = r.byConn[connID]
	if !ok {
		return "", false
	}
	delete(r.byConn, connID)
	if r.byUser[identity] == connID {
		delete(r.byUser, identity)
	}
	return identity, true
}

// Identities returns a snapshot of everyone currently online.
func (r *Registry) Identities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byUser))
	for identity := range r.byUser {
		out = append(out, identity)
	}
	return out
}
