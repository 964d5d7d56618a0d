package transport

import (
	"context"
	"sort"
	"sync"

	"github.com/platinummonkey/herald/pkg/events"
	"github.com/platinummonkey/herald/pkg/observability"
	"github.com/platinummonkey/herald/pkg/registry"
)

// DefaultQueueSize is the per-connection queue length used when none is
// configured
const DefaultQueueSize = 64

type client struct {
	queue  chan events.Event
	groups map[string]struct{}
}

// Hub is an in-process Broadcaster
type Hub struct {
	mu        sync.RWMutex
	clients   map[registry.ConnectionID]*client
	groups    map[string]map[registry.ConnectionID]struct{}
	queueSize int
	metrics   *observability.Metrics
	logger    *observability.Logger
}

// NewHub creates a hub. queueSize <= 0 uses DefaultQueueSize; metrics may be
// nil.
func NewHub(queueSize int, metrics *observability.Metrics, logger *observability.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Hub{
		clients:   make(map[registry.ConnectionID]*client),
		groups:    make(map[string]map[registry.ConnectionID]struct{}),
		queueSize: queueSize,
		metrics:   metrics,
		logger:    observability.OrNop(logger),
	}
}

// Open registers a connection and returns its event queue. Opening an
// already open connection returns the existing queue.
func (h *Hub) Open(conn registry.ConnectionID) <-chan events.Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[conn]; ok {
		return c.queue
	}
	c := &client{
		queue:  make(chan events.Event, h.queueSize),
		groups: make(map[string]struct{}),
	}
	h.clients[conn] = c
	if h.metrics != nil {
		h.metrics.ConnectionsActive.Inc()
	}
	return c.queue
}

// Close removes a connection from every group and closes its queue
func (h *Hub) Close(conn registry.ConnectionID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[conn]
	if !ok {
		return
	}
	for group := range c.groups {
		h.removeMember(group, conn)
	}
	delete(h.clients, conn)
	close(c.queue)
	if h.metrics != nil {
		h.metrics.ConnectionsActive.Dec()
	}
}

// JoinGroup adds an open connection to a group. Unknown connections are
// ignored.
func (h *Hub) JoinGroup(ctx context.Context, conn registry.ConnectionID, group string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[conn]
	if !ok {
		h.countGroupOp("join", "unknown_connection")
		return nil
	}
	members, ok := h.groups[group]
	if !ok {
		members = make(map[registry.ConnectionID]struct{})
		h.groups[group] = members
	}
	members[conn] = struct{}{}
	c.groups[group] = struct{}{}
	h.countGroupOp("join", "ok")
	return nil
}

// LeaveGroup removes a connection from a group
func (h *Hub) LeaveGroup(ctx context.Context, conn registry.ConnectionID, group string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[conn]
	if !ok {
		h.countGroupOp("leave", "unknown_connection")
		return nil
	}
	delete(c.groups, group)
	h.removeMember(group, conn)
	h.countGroupOp("leave", "ok")
	return nil
}

// removeMember must be called with h.mu held
func (h *Hub) removeMember(group string, conn registry.ConnectionID) {
	members, ok := h.groups[group]
	if !ok {
		return
	}
	delete(members, conn)
	if len(members) == 0 {
		delete(h.groups, group)
	}
}

// SendToGroup enqueues event for every member of group
func (h *Hub) SendToGroup(ctx context.Context, group string, event events.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.groups[group] {
		h.enqueue(conn, h.clients[conn], event)
	}
	return nil
}

// SendToConnection enqueues event for a single connection
func (h *Hub) SendToConnection(ctx context.Context, conn registry.ConnectionID, event events.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if c, ok := h.clients[conn]; ok {
		h.enqueue(conn, c, event)
	}
	return nil
}

// enqueue must be called with h.mu held for reading
func (h *Hub) enqueue(conn registry.ConnectionID, c *client, event events.Event) {
	select {
	case c.queue <- event:
	default:
		if h.metrics != nil {
			h.metrics.EventsDroppedTotal.Inc()
		}
		h.logger.WithFields(map[string]interface{}{
			"connection_id": string(conn),
			"event_source":  string(event.EventSource),
			"event_type":    string(event.EventType),
		}).Warn("Connection queue full, dropping event")
	}
}

// Groups returns the sorted groups a connection belongs to
func (h *Hub) Groups(conn registry.ConnectionID) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[conn]
	if !ok {
		return []string{}
	}
	groups := make([]string, 0, len(c.groups))
	for g := range c.groups {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

func (h *Hub) countGroupOp(operation, status string) {
	if h.metrics != nil {
		h.metrics.GroupOperationsTotal.WithLabelValues(operation, status).Inc()
	}
}
