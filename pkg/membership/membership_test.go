package membership

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/herald/pkg/auth"
	"github.com/platinummonkey/herald/pkg/authz"
	"github.com/platinummonkey/herald/pkg/events"
	"github.com/platinummonkey/herald/pkg/registry"
	"github.com/platinummonkey/herald/pkg/transport"
)

// sectionAuthorizer allows a category when the principal holds the section
// of the same name
type sectionAuthorizer struct {
	categories []events.Category
}

func (s sectionAuthorizer) Categories() []events.Category { return s.categories }

func (s sectionAuthorizer) Authorize(ctx context.Context, p *auth.Principal, c events.Category) (bool, error) {
	return p.HasSection(string(c)), nil
}

type stubBuilder struct {
	principal *auth.Principal
	err       error
	calls     int
}

func (b *stubBuilder) BuildPrincipal(ctx context.Context, identity string) (*auth.Principal, error) {
	b.calls++
	return b.principal, b.err
}

type fixture struct {
	registry *registry.Registry
	hub      *transport.Hub
	builder  *stubBuilder
	manager  *Manager
}

func newFixture() *fixture {
	f := &fixture{
		registry: registry.New(),
		hub:      transport.NewHub(8, nil, nil),
		builder:  &stubBuilder{},
	}
	aggregator := authz.NewAggregator(
		[]authz.Authorizer{sectionAuthorizer{categories: events.AllCategories()}},
	)
	f.manager = NewManager(f.registry, f.hub, aggregator, f.builder, nil, nil)
	return f
}

func principalWith(key uuid.UUID, sections ...string) *auth.Principal {
	return &auth.Principal{Key: key, AllowedSections: sections, Approved: true}
}

func group(c events.Category) string {
	name, _ := events.GroupName(c)
	return name
}

func TestConnect_NilPrincipalAborts(t *testing.T) {
	f := newFixture()
	f.hub.Open("c1")

	err := f.manager.Connect(context.Background(), nil, "c1")
	assert.ErrorIs(t, err, ErrAborted)
	assert.Empty(t, f.registry.Identities())
	assert.Empty(t, f.hub.Groups("c1"))
}

func TestConnect_JoinsAllowedGroups(t *testing.T) {
	f := newFixture()
	key := uuid.New()
	f.hub.Open("c1")

	err := f.manager.Connect(context.Background(), principalWith(key, "Document", "User"), "c1")
	require.NoError(t, err)

	assert.Equal(t, []registry.ConnectionID{"c1"}, f.registry.Get(key.String()))
	assert.ElementsMatch(t, []string{group(events.CategoryDocument), group(events.CategoryUser)}, f.hub.Groups("c1"))
}

func TestConnect_Idempotent(t *testing.T) {
	f := newFixture()
	key := uuid.New()
	f.hub.Open("c1")
	p := principalWith(key, "Media")

	require.NoError(t, f.manager.Connect(context.Background(), p, "c1"))
	require.NoError(t, f.manager.Connect(context.Background(), p, "c1"))

	assert.Equal(t, []registry.ConnectionID{"c1"}, f.registry.Get(key.String()))
	assert.Equal(t, []string{group(events.CategoryMedia)}, f.hub.Groups("c1"))
}

func TestConnect_ConfigurationErrorUnregisters(t *testing.T) {
	f := newFixture()
	aggregator := authz.NewAggregator(nil)
	manager := NewManager(f.registry, f.hub, aggregator, f.builder, nil, nil)
	key := uuid.New()

	err := manager.Connect(context.Background(), principalWith(key), "c1")
	var cfgErr *authz.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
	assert.Empty(t, f.registry.Get(key.String()))
}

// failingAuthorization allows Document and fails on any later category
type failingAuthorization struct{}

func (failingAuthorization) Categories() []events.Category {
	return []events.Category{events.CategoryDocument, events.CategoryMedia}
}

func (failingAuthorization) AuthorizeAll(ctx context.Context, p *auth.Principal) (authz.Result, error) {
	return authz.Result{}, errors.New("not used")
}

func (failingAuthorization) AuthorizeOne(ctx context.Context, p *auth.Principal, c events.Category) (bool, error) {
	if c == events.CategoryDocument {
		return true, nil
	}
	return false, errors.New("policy store unavailable")
}

func TestConnect_FailureLeavesJoinedGroups(t *testing.T) {
	f := newFixture()
	manager := NewManager(f.registry, f.hub, failingAuthorization{}, f.builder, nil, nil)
	key := uuid.New()
	f.hub.Open("c1")

	err := manager.Connect(context.Background(), principalWith(key, "Document"), "c1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "policy store unavailable")
	assert.Empty(t, f.hub.Groups("c1"))
	assert.Empty(t, f.registry.Get(key.String()))
}

func TestDisconnect(t *testing.T) {
	f := newFixture()
	key := uuid.New()
	f.hub.Open("c1")
	require.NoError(t, f.manager.Connect(context.Background(), principalWith(key), "c1"))

	f.manager.Disconnect(context.Background(), key.String(), "c1")
	assert.Empty(t, f.registry.Get(key.String()))
	assert.Empty(t, f.registry.Identities())
}

func TestReauthorize_NoConnectionsIsNoop(t *testing.T) {
	f := newFixture()
	f.builder.err = errors.New("must not be called")

	require.NoError(t, f.manager.Reauthorize(context.Background(), uuid.NewString()))
	assert.Equal(t, 0, f.builder.calls)
}

func TestReauthorize_ResyncsAllConnections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	key := uuid.New()

	for _, conn := range []registry.ConnectionID{"c1", "c2"} {
		f.hub.Open(conn)
		require.NoError(t, f.manager.Connect(ctx, principalWith(key, "Document", "Media"), conn))
	}
	other := uuid.New()
	f.hub.Open("c3")
	require.NoError(t, f.manager.Connect(ctx, principalWith(other, "Document", "Media"), "c3"))

	// Media revoked, User granted
	f.builder.principal = principalWith(key, "Document", "User")
	require.NoError(t, f.manager.Reauthorize(ctx, key.String()))
	assert.Equal(t, 1, f.builder.calls)

	want := []string{group(events.CategoryDocument), group(events.CategoryUser)}
	assert.ElementsMatch(t, want, f.hub.Groups("c1"))
	assert.ElementsMatch(t, want, f.hub.Groups("c2"))
	assert.ElementsMatch(t, []string{group(events.CategoryDocument), group(events.CategoryMedia)}, f.hub.Groups("c3"),
		"other identities are untouched")
}

func TestReauthorize_BuilderFailureSurfaced(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	key := uuid.New()
	f.hub.Open("c1")
	require.NoError(t, f.manager.Connect(ctx, principalWith(key, "Document"), "c1"))

	f.builder.err = auth.ErrPrincipalNotFound
	err := f.manager.Reauthorize(ctx, key.String())
	assert.ErrorIs(t, err, auth.ErrPrincipalNotFound)
	assert.Equal(t, []string{group(events.CategoryDocument)}, f.hub.Groups("c1"))
}
