// Package router delivers events: by category group, or directly to the live
// connections of one identity.
package router

import (
	"context"
	"fmt"

	"github.com/platinummonkey/herald/pkg/events"
	"github.com/platinummonkey/herald/pkg/observability"
	"github.com/platinummonkey/herald/pkg/registry"
	"github.com/platinummonkey/herald/pkg/transport"
)

// Router sends events through a Broadcaster
type Router struct {
	registry    *registry.Registry
	broadcaster transport.Broadcaster
	metrics     *observability.Metrics
	logger      *observability.Logger
}

// New creates a router. metrics may be nil.
func New(reg *registry.Registry, broadcaster transport.Broadcaster, metrics *observability.Metrics, logger *observability.Logger) *Router {
	return &Router{
		registry:    reg,
		broadcaster: broadcaster,
		metrics:     metrics,
		logger:      observability.OrNop(logger),
	}
}

// Route broadcasts event to the group of its category
func (r *Router) Route(ctx context.Context, event events.Event) error {
	group, ok := events.GroupName(event.EventSource)
	if !ok {
		return fmt.Errorf("route %s event: unknown category %q", event.EventType, event.EventSource)
	}
	if err := r.broadcaster.SendToGroup(ctx, group, event); err != nil {
		r.logger.WithError(err).WithField("group", group).Warn("Failed to send event to group")
		return fmt.Errorf("send to %s: %w", group, err)
	}
	r.count(event, "group")
	return nil
}

// NotifyIdentity sends event to every live connection of identity without
// consulting authorization. Send failures are logged and the remaining
// connections still receive the event.
func (r *Router) NotifyIdentity(ctx context.Context, event events.Event, identity string) error {
	for _, conn := range r.registry.Get(identity) {
		if err := r.broadcaster.SendToConnection(ctx, conn, event); err != nil {
			r.logger.WithError(err).WithFields(map[string]interface{}{
				"identity":      identity,
				"connection_id": string(conn),
			}).Warn("Failed to send event to connection")
			continue
		}
		r.count(event, "identity")
	}
	return nil
}

func (r *Router) count(event events.Event, mode string) {
	if r.metrics != nil {
		r.metrics.EventsRoutedTotal.WithLabelValues(string(event.EventSource), string(event.EventType), mode).Inc()
	}
}
