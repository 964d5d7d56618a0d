// Package membership keeps transport group membership in line with what
// each connected principal is authorized to receive.
package membership

import (
	"context"
	"errors"
	"fmt"

	"github.com/platinummonkey/herald/pkg/auth"
	"github.com/platinummonkey/herald/pkg/authz"
	"github.com/platinummonkey/herald/pkg/events"
	"github.com/platinummonkey/herald/pkg/observability"
	"github.com/platinummonkey/herald/pkg/registry"
	"github.com/platinummonkey/herald/pkg/transport"
)

// ErrAborted is returned by Connect when there is no principal
var ErrAborted = errors.New("connection aborted: unresolved principal")

// Authorization is the subset of the aggregator the manager needs
type Authorization interface {
	Categories() []events.Category
	AuthorizeAll(ctx context.Context, principal *auth.Principal) (authz.Result, error)
	AuthorizeOne(ctx context.Context, principal *auth.Principal, category events.Category) (bool, error)
}

// Manager joins connections to the groups of the categories their principal
// may receive
type Manager struct {
	registry    *registry.Registry
	broadcaster transport.Broadcaster
	authz       Authorization
	builder     auth.PrincipalBuilder
	metrics     *observability.Metrics
	logger      *observability.Logger
}

// NewManager creates a membership manager. metrics may be nil.
func NewManager(reg *registry.Registry, broadcaster transport.Broadcaster, authorization Authorization, builder auth.PrincipalBuilder, metrics *observability.Metrics, logger *observability.Logger) *Manager {
	return &Manager{
		registry:    reg,
		broadcaster: broadcaster,
		authz:       authorization,
		builder:     builder,
		metrics:     metrics,
		logger:      observability.OrNop(logger),
	}
}

// Connect registers conn under the principal's identity and joins it to the
// group of every category the principal is allowed. A nil principal aborts
// without touching the registry. When authorization fails part way, conn
// leaves the groups it already joined and is unregistered.
func (m *Manager) Connect(ctx context.Context, principal *auth.Principal, conn registry.ConnectionID) error {
	if principal == nil {
		return ErrAborted
	}
	identity := principal.Identity()
	logger := m.logger.WithFields(map[string]interface{}{
		"identity":      identity,
		"connection_id": string(conn),
	})

	m.registry.Add(identity, conn)

	var joined []string
	for _, category := range m.authz.Categories() {
		allowed, err := m.authz.AuthorizeOne(ctx, principal, category)
		if err != nil {
			m.leave(ctx, logger, conn, joined)
			m.registry.Remove(identity, conn)
			return fmt.Errorf("authorize %s for connection %s: %w", category, conn, err)
		}
		if !allowed {
			continue
		}
		if m.join(ctx, logger, conn, category) {
			group, _ := events.GroupName(category)
			joined = append(joined, group)
		}
	}

	logger.WithField("groups", len(joined)).Info("Connection joined")
	return nil
}

// Disconnect forgets conn. Group cleanup belongs to the transport.
func (m *Manager) Disconnect(ctx context.Context, identity string, conn registry.ConnectionID) {
	m.registry.Remove(identity, conn)
	m.logger.WithFields(map[string]interface{}{
		"identity":      identity,
		"connection_id": string(conn),
	}).Debug("Connection left")
}

// Reauthorize recomputes the groups of every live connection of identity
// from a freshly built principal. Identities without connections are
// skipped without building a principal.
func (m *Manager) Reauthorize(ctx context.Context, identity string) error {
	conns := m.registry.Get(identity)
	if len(conns) == 0 {
		m.countReauthorization("skipped")
		return nil
	}
	logger := m.logger.WithField("identity", identity)

	principal, err := m.builder.BuildPrincipal(ctx, identity)
	if err != nil {
		m.countReauthorization("error")
		return fmt.Errorf("rebuild principal %s: %w", identity, err)
	}

	result, err := m.authz.AuthorizeAll(ctx, principal)
	if err != nil {
		m.countReauthorization("error")
		return fmt.Errorf("reauthorize %s: %w", identity, err)
	}

	for _, category := range result.Allowed {
		for _, conn := range conns {
			m.join(ctx, logger, conn, category)
		}
	}
	var denied []string
	for _, category := range result.Denied {
		if group, ok := events.GroupName(category); ok {
			denied = append(denied, group)
		}
	}
	for _, conn := range conns {
		m.leave(ctx, logger, conn, denied)
	}

	m.countReauthorization("ok")
	logger.WithFields(map[string]interface{}{
		"connections": len(conns),
		"allowed":     len(result.Allowed),
		"denied":      len(result.Denied),
	}).Info("Connections reauthorized")
	return nil
}

func (m *Manager) join(ctx context.Context, logger *observability.Logger, conn registry.ConnectionID, category events.Category) bool {
	group, ok := events.GroupName(category)
	if !ok {
		logger.WithField("category", string(category)).Warn("No group for category")
		return false
	}
	if err := m.broadcaster.JoinGroup(ctx, conn, group); err != nil {
		logger.WithError(err).WithField("group", group).Warn("Failed to join group")
		return false
	}
	return true
}

func (m *Manager) leave(ctx context.Context, logger *observability.Logger, conn registry.ConnectionID, groups []string) {
	for _, group := range groups {
		if err := m.broadcaster.LeaveGroup(ctx, conn, group); err != nil {
			logger.WithError(err).WithField("group", group).Warn("Failed to leave group")
		}
	}
}

func (m *Manager) countReauthorization(status string) {
	if m.metrics != nil {
		m.metrics.ReauthorizationsTotal.WithLabelValues(status).Inc()
	}
}
