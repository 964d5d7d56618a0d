// Package translator turns domain change signals into outbound events.
//
// Most signals map through a static table to a category and a kind. Saved
// entities become Created when their create and update timestamps are equal
// and Updated otherwise. Two signals need more work: public access entries
// also refresh the protected document, and a saved user is told about the
// change on their own connections and has their group membership
// recomputed.
package translator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/platinummonkey/herald/pkg/events"
	"github.com/platinummonkey/herald/pkg/keys"
	"github.com/platinummonkey/herald/pkg/observability"
	"github.com/platinummonkey/herald/pkg/signals"
)

// Router delivers translated events
type Router interface {
	Route(ctx context.Context, event events.Event) error
	NotifyIdentity(ctx context.Context, event events.Event, identity string) error
}

// Reauthorizer recomputes the group membership of an identity
type Reauthorizer interface {
	Reauthorize(ctx context.Context, identity string) error
}

// KeyResolver maps an internal id to an external key and forgets the
// mapping once the node is gone
type KeyResolver interface {
	ResolveKey(ctx context.Context, id int64, kind keys.ObjectKind) (uuid.UUID, error)
	Invalidate(ctx context.Context, id int64, kind keys.ObjectKind) error
}

type protectedNode interface {
	ProtectedNode() int64
}

type node interface {
	NodeID() int64
}

// nodeKinds are the categories whose entities live in the nodes table
var nodeKinds = map[events.Category]keys.ObjectKind{
	events.CategoryDocument: keys.KindDocument,
	events.CategoryMedia:    keys.KindMedia,
	events.CategoryMember:   keys.KindMember,
}

// Translator subscribes to domain change signals and routes events
type Translator struct {
	router       Router
	reauthorizer Reauthorizer
	keys         KeyResolver
	logger       *observability.Logger
}

// New creates a translator
func New(router Router, reauthorizer Reauthorizer, resolver KeyResolver, logger *observability.Logger) *Translator {
	return &Translator{
		router:       router,
		reauthorizer: reauthorizer,
		keys:         resolver,
		logger:       observability.OrNop(logger),
	}
}

// Register subscribes the translator to every signal it translates
func (t *Translator) Register(bus *signals.Bus) {
	for name := range table {
		bus.Subscribe(name, t.Handle)
	}
}

// Handle translates one signal
func (t *Translator) Handle(ctx context.Context, sig signals.Signal) error {
	target, ok := Lookup(sig.Name)
	if !ok {
		return fmt.Errorf("no translation for signal %q", sig.Name)
	}

	switch sig.Name {
	case signals.PublicAccessEntrySaved, signals.PublicAccessEntryDeleted:
		return t.handlePublicAccess(ctx, target, sig.Entities)
	case signals.UserSaved:
		return t.handleUserSaved(ctx, target.Category, sig.Entities)
	}

	switch target.Kind {
	case Saved:
		t.handleSaved(ctx, target.Category, sig.Entities)
	case Deleted:
		t.handleDeleted(ctx, target.Category, sig.Entities)
	case Trashed:
		t.handleTrashed(ctx, target.Category, sig.Entities)
	}
	return nil
}

// SavedEventType tells a first save from a later one by comparing
// timestamps. An entity whose timestamps coincide on a later save is
// reported as Created.
func SavedEventType(entity signals.Entity) events.EventType {
	if entity.CreateDate().Equal(entity.UpdateDate()) {
		return events.EventCreated
	}
	return events.EventUpdated
}

func (t *Translator) handleSaved(ctx context.Context, category events.Category, entities []signals.Entity) {
	for _, entity := range entities {
		t.route(ctx, events.New(SavedEventType(entity), category, entity.Key()))
	}
}

func (t *Translator) handleDeleted(ctx context.Context, category events.Category, entities []signals.Entity) {
	for _, entity := range entities {
		t.route(ctx, events.New(events.EventDeleted, category, entity.Key()))
		t.forget(ctx, category, entity)
	}
}

// forget drops the cached key of a deleted node so a reused id resolves
// again
func (t *Translator) forget(ctx context.Context, category events.Category, entity signals.Entity) {
	kind, ok := nodeKinds[category]
	if !ok {
		return
	}
	n, ok := entity.(node)
	if !ok || n.NodeID() == 0 {
		return
	}
	if err := t.keys.Invalidate(ctx, n.NodeID(), kind); err != nil {
		t.logger.WithError(err).WithFields(map[string]interface{}{
			"node_id": n.NodeID(),
			"key":     entity.Key().String(),
		}).Warn("Failed to invalidate cached key")
	}
}

func (t *Translator) handleTrashed(ctx context.Context, category events.Category, entities []signals.Entity) {
	for _, entity := range entities {
		t.route(ctx, events.New(events.EventTrashed, category, entity.Key()))
	}
}

func (t *Translator) handlePublicAccess(ctx context.Context, target Target, entities []signals.Entity) error {
	for _, entity := range entities {
		eventType := events.EventDeleted
		if target.Kind == Saved {
			eventType = SavedEventType(entity)
		}
		t.route(ctx, events.New(eventType, target.Category, entity.Key()))

		entry, ok := entity.(protectedNode)
		if !ok {
			continue
		}
		documentKey, err := t.keys.ResolveKey(ctx, entry.ProtectedNode(), keys.KindDocument)
		if err != nil {
			t.logger.WithError(err).WithFields(map[string]interface{}{
				"entry_key": entity.Key().String(),
				"node_id":   entry.ProtectedNode(),
			}).Warn("Skipping document refresh for public access entry")
			continue
		}
		t.route(ctx, events.New(events.EventUpdated, events.CategoryDocument, documentKey))
	}
	return nil
}

func (t *Translator) handleUserSaved(ctx context.Context, category events.Category, entities []signals.Entity) error {
	var errs []error
	for _, entity := range entities {
		key := entity.Key()
		identity := key.String()

		t.route(ctx, events.New(SavedEventType(entity), category, key))

		current := events.New(events.EventUpdated, events.CategoryCurrentUser, key)
		if err := t.router.NotifyIdentity(ctx, current, identity); err != nil {
			t.logger.WithError(err).WithField("identity", identity).Warn("Failed to notify user")
		}

		if err := t.reauthorizer.Reauthorize(ctx, identity); err != nil {
			errs = append(errs, fmt.Errorf("reauthorize user %s: %w", identity, err))
		}
	}
	return errors.Join(errs...)
}

func (t *Translator) route(ctx context.Context, event events.Event) {
	if err := t.router.Route(ctx, event); err != nil {
		t.logger.WithError(err).WithFields(map[string]interface{}{
			"event_source": string(event.EventSource),
			"event_type":   string(event.EventType),
			"key":          event.Key.String(),
		}).Warn("Failed to route event")
	}
}
