package async

import (
	"context"
	"time"

	"github.com/platinummonkey/herald/pkg/observability"
)

// SafeGo executes a function in a goroutine with:
// - Context cancellation support
// - Panic recovery
// - Timeout enforcement
// - Error logging
//
// Use this instead of bare `go func()` for fire-and-forget work.
//
// The parent context's values are kept but its cancellation is not: work
// started from a request keeps running after the request returns, bounded
// by timeout.
//
// Example:
//
//	async.SafeGo(r.Context(), logger, 5*time.Second, "signal ContentSaved", func(ctx context.Context) error {
//	    return bus.Publish(ctx, sig)
//	})
func SafeGo(parentCtx context.Context, logger *observability.Logger, timeout time.Duration, taskName string, fn func(context.Context) error) {
	logger = observability.OrNop(logger).WithField("task", taskName)
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parentCtx), timeout)
		defer cancel()

		defer observability.RecoverPanic(logger, taskName)

		if err := fn(ctx); err != nil {
			logger.WithError(err).Error("background task failed")
		}
	}()
}
