package authz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/herald/pkg/auth"
	"github.com/platinummonkey/herald/pkg/events"
	"github.com/platinummonkey/herald/pkg/observability"
)

// ConfigurationError reports a category that no authorizer claims
type ConfigurationError struct {
	Category events.Category
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("authz: no authorizer registered for category %q", e.Category)
}

// Result splits the authorizable categories into allowed and denied. Both
// lists keep the order of the aggregator's category list.
type Result struct {
	Allowed []events.Category `json:"allowed"`
	Denied  []events.Category `json:"denied"`
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithMetrics records decisions and evaluation time
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l *observability.Logger) Option {
	return func(a *Aggregator) { a.logger = observability.OrNop(l) }
}

// WithConcurrency bounds how many categories AuthorizeAll evaluates at
// once. n <= 0 leaves evaluation unbounded.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) { a.concurrency = n }
}

// Aggregator combines authorizers per category
type Aggregator struct {
	authorizers []Authorizer
	categories  []events.Category
	concurrency int
	metrics     *observability.Metrics
	logger      *observability.Logger

	once  sync.Once
	index map[events.Category][]Authorizer
}

// NewAggregator creates an aggregator over authorizers. The slice order is
// the evaluation order within a category.
func NewAggregator(authorizers []Authorizer, opts ...Option) *Aggregator {
	a := &Aggregator{
		authorizers: append([]Authorizer(nil), authorizers...),
		categories:  events.AllCategories(),
		concurrency: 8,
		logger:      observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Categories returns the authorizable categories
func (a *Aggregator) Categories() []events.Category {
	return append([]events.Category(nil), a.categories...)
}

func (a *Aggregator) buildIndex() {
	a.once.Do(func() {
		index := make(map[events.Category][]Authorizer)
		for _, authorizer := range a.authorizers {
			for _, c := range authorizer.Categories() {
				index[c] = append(index[c], authorizer)
			}
		}
		a.index = index
	})
}

func (a *Aggregator) authorizersFor(category events.Category) ([]Authorizer, error) {
	a.buildIndex()
	list := a.index[category]
	if len(list) == 0 {
		return nil, &ConfigurationError{Category: category}
	}
	return list, nil
}

// AuthorizeAll evaluates every authorizable category for principal
func (a *Aggregator) AuthorizeAll(ctx context.Context, principal *auth.Principal) (Result, error) {
	ctx, span := observability.Tracer().Start(ctx, "authz.AuthorizeAll")
	defer span.End()
	if principal != nil {
		span.SetAttributes(attribute.String("herald.identity", principal.Identity()))
	}

	start := time.Now()
	defer func() {
		if a.metrics != nil {
			a.metrics.AuthorizationDuration.Observe(time.Since(start).Seconds())
		}
	}()

	lists := make([][]Authorizer, len(a.categories))
	for i, c := range a.categories {
		list, err := a.authorizersFor(c)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			a.logger.WithError(err).Error("Authorization is misconfigured")
			return Result{}, err
		}
		lists[i] = list
	}

	decisions := make([]bool, len(a.categories))
	g, gctx := errgroup.WithContext(ctx)
	if a.concurrency > 0 {
		g.SetLimit(a.concurrency)
	}
	for i := range a.categories {
		i := i
		g.Go(func() error {
			allowed, err := a.evaluate(gctx, principal, a.categories[i], lists[i])
			if err != nil {
				return err
			}
			decisions[i] = allowed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	result := Result{
		Allowed: make([]events.Category, 0, len(a.categories)),
		Denied:  make([]events.Category, 0, len(a.categories)),
	}
	for i, c := range a.categories {
		if decisions[i] {
			result.Allowed = append(result.Allowed, c)
		} else {
			result.Denied = append(result.Denied, c)
		}
	}
	span.SetAttributes(
		attribute.Int("herald.allowed", len(result.Allowed)),
		attribute.Int("herald.denied", len(result.Denied)),
	)
	return result, nil
}

// AuthorizeOne evaluates a single category for principal
func (a *Aggregator) AuthorizeOne(ctx context.Context, principal *auth.Principal, category events.Category) (bool, error) {
	list, err := a.authorizersFor(category)
	if err != nil {
		a.logger.WithError(err).Error("Authorization is misconfigured")
		return false, err
	}
	return a.evaluate(ctx, principal, category, list)
}

// evaluate runs the authorizers in order and stops at the first denial
func (a *Aggregator) evaluate(ctx context.Context, principal *auth.Principal, category events.Category, list []Authorizer) (bool, error) {
	for _, authorizer := range list {
		allowed, err := authorizer.Authorize(ctx, principal, category)
		if err != nil {
			return false, fmt.Errorf("authorize %s: %w", category, err)
		}
		if !allowed {
			a.record(category, false)
			return false, nil
		}
	}
	a.record(category, true)
	return true, nil
}

func (a *Aggregator) record(category events.Category, allowed bool) {
	if a.metrics == nil {
		return
	}
	decision := "denied"
	if allowed {
		decision = "allowed"
	}
	a.metrics.AuthorizationDecisionsTotal.WithLabelValues(string(category), decision).Inc()
}
