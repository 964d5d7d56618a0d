package signals

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/platinummonkey/herald/pkg/async"
	"github.com/platinummonkey/herald/pkg/observability"
)

// DefaultAsyncTimeout bounds a background dispatch started by PublishAsync
const DefaultAsyncTimeout = 30 * time.Second

// Signal is one domain change notification
type Signal struct {
	Name     Name
	Entities []Entity
}

// Handler reacts to a signal
type Handler func(ctx context.Context, sig Signal) error

// Bus dispatches signals to subscribed handlers in-process
type Bus struct {
	mu       sync.RWMutex
	handlers map[Name][]Handler

	asyncTimeout time.Duration
	metrics      *observability.Metrics
	logger       *observability.Logger
}

// NewBus creates a bus. metrics may be nil.
func NewBus(logger *observability.Logger, metrics *observability.Metrics) *Bus {
	return &Bus{
		handlers:     make(map[Name][]Handler),
		asyncTimeout: DefaultAsyncTimeout,
		metrics:      metrics,
		logger:       observability.OrNop(logger),
	}
}

// Subscribe appends a handler for name
func (b *Bus) Subscribe(name Name, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], handler)
}

// Subscribed reports whether name has at least one handler
func (b *Bus) Subscribed(name Name) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name]) > 0
}

// Publish runs every handler for the signal in subscription order. A failing
// or panicking handler does not stop the others; all failures are returned
// joined.
func (b *Bus) Publish(ctx context.Context, sig Signal) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[sig.Name]...)
	b.mu.RUnlock()

	logger := b.logger.WithFields(map[string]interface{}{
		"signal":   string(sig.Name),
		"entities": len(sig.Entities),
	})

	var errs []error
	for i, handler := range handlers {
		if err := b.run(ctx, handler, sig); err != nil {
			logger.WithError(err).WithField("handler", i).Error("Signal handler failed")
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		b.count(sig.Name, "error")
		return fmt.Errorf("signal %s: %w", sig.Name, errors.Join(errs...))
	}
	b.count(sig.Name, "ok")
	return nil
}

// PublishAsync publishes in the background. Errors are logged.
func (b *Bus) PublishAsync(ctx context.Context, sig Signal) {
	async.SafeGo(ctx, b.logger, b.asyncTimeout, "signal "+string(sig.Name), func(ctx context.Context) error {
		return b.Publish(ctx, sig)
	})
}

func (b *Bus) run(ctx context.Context, handler Handler, sig Signal) (err error) {
	defer func() {
		if perr := observability.PanicError(recover()); perr != nil {
			err = perr
		}
	}()
	return handler(ctx, sig)
}

func (b *Bus) count(name Name, status string) {
	if b.metrics != nil {
		b.metrics.SignalsTotal.WithLabelValues(string(name), status).Inc()
	}
}
