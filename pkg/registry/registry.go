package registry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ConnectionID identifies one live transport channel
type ConnectionID string

// Registry maps an identity to the set of its live connections. One
// identity may hold several connections at once (tabs, devices).
//
// A single mutex guards the whole map. Every operation is O(1) and nothing
// blocks while the lock is held.
type Registry struct {
	mu          sync.Mutex
	connections map[string]map[ConnectionID]struct{}
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		connections: make(map[string]map[ConnectionID]struct{}),
	}
}

// Add records that conn belongs to identity. Adding the same connection
// twice is a no-op.
func (r *Registry) Add(identity string, conn ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.connections[identity]
	if !ok {
		set = make(map[ConnectionID]struct{})
		r.connections[identity] = set
	}
	set[conn] = struct{}{}
}

// Remove forgets conn for identity. The identity entry is dropped once its
// last connection is removed. Removing an unknown connection is a no-op.
func (r *Registry) Remove(identity string, conn ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.connections[identity]
	if !ok {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(r.connections, identity)
	}
}

// Get returns a snapshot of the connections of identity. The result is a
// copy; later Add/Remove calls do not affect it. An unknown identity yields
// an empty, non-nil slice.
func (r *Registry) Get(identity string) []ConnectionID {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.connections[identity]
	out := make([]ConnectionID, 0, len(set))
	for conn := range set {
		out = append(out, conn)
	}
	return out
}

// Identities returns the number of identities with at least one connection
func (r *Registry) Identities() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.connections)
}

// Connections returns the total number of live connections
func (r *Registry) Connections() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, set := range r.connections {
		n += len(set)
	}
	return n
}

// Collectors exports the identity and connection counts as gauges read at
// scrape time
func (r *Registry) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "herald_registry_identities",
			Help: "Number of identities with at least one live connection",
		}, func() float64 { return float64(r.Identities()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "herald_registry_connections",
			Help: "Number of live connections tracked by the registry",
		}, func() float64 { return float64(r.Connections()) }),
	}
}

// has reports whether an entry exists for identity. Used by tests to check
// that emptied entries do not linger.
func (r *Registry) has(identity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.connections[identity]
	return ok
}
