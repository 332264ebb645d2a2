package inflight

import "sync"

// Registry tracks identity keys with a disbursement currently in flight.
// Acquisition of a key set is all-or-nothing: either every key is free and
// all are reserved, or nothing changes. Reservations live only in process
// memory and vanish on restart.
type Registry struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{held: make(map[string]struct{})}
}

// TryAcquire reserves every key atomically. It returns false without
// reserving anything if any key is already held.
func (r *Registry) TryAcquire(keys ...string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range keys {
		if _, exists := r.held[key]; exists {
			return false
		}
	}
	for _, key := range keys {
		r.held[key] = struct{}{}
	}
	return true
}

// Release removes the given keys. Releasing a key that is not held is a no-op.
func (r *Registry) Release(keys ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range keys {
		delete(r.held, key)
	}
}

// Held reports whether a key currently has a reservation.
func (r *Registry) Held(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.held[key]
	return ok
}
