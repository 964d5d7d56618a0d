// Package signals carries domain change notifications from the content
// service to herald.
//
// A Signal names what happened (ContentSaved, MediaMovedToRecycleBin, ...)
// and lists the affected entities. Handlers subscribe to names on a Bus:
//
//	bus := signals.NewBus(logger, metrics)
//	bus.Subscribe(signals.ContentSaved, func(ctx context.Context, sig signals.Signal) error {
//		...
//	})
//	err := bus.Publish(ctx, signals.Signal{Name: signals.ContentSaved, Entities: entities})
//
// Publish runs handlers inline and keeps going when one fails. PublishAsync
// runs the same dispatch in the background so the caller never waits on
// notification work.
package signals
