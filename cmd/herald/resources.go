package main

import (
	"context"

	"github.com/platinummonkey/herald/pkg/observability"
)

// resources holds what serve has opened until the shutdown manager takes
// ownership. Close runs in reverse order and is a no-op after handoff.
type resources struct {
	closers []observability.ShutdownFunc
	handed  bool
}

// add records a resource to close
func (r *resources) add(fn observability.ShutdownFunc) {
	r.closers = append(r.closers, fn)
}

// handOff registers every resource with sm in the order it was added
func (r *resources) handOff(sm *observability.ShutdownManager) {
	for _, fn := range r.closers {
		sm.RegisterShutdownFunc(fn)
	}
	r.handed = true
}

// close releases the resources when startup failed before handoff
func (r *resources) close(ctx context.Context, logger *observability.Logger) {
	if r.handed {
		return
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](ctx); err != nil {
			observability.OrNop(logger).WithError(err).Warn("Failed to release resource after startup error")
		}
	}
	r.closers = nil
}
