// Package async provides safe fire-and-forget execution for background work.
//
// SafeGo runs a function in a goroutine with panic recovery, a timeout and
// error logging:
//
//	async.SafeGo(ctx, logger, 30*time.Second, "publish signal", func(ctx context.Context) error {
//		return bus.Publish(ctx, sig)
//	})
//
// # Related Packages
//
//   - pkg/signals: Uses SafeGo for asynchronous signal publication
package async
