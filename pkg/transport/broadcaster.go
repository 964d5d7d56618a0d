package transport

import (
	"context"

	"github.com/platinummonkey/herald/pkg/events"
	"github.com/platinummonkey/herald/pkg/registry"
)

// Broadcaster manages group membership and delivery. All operations are
// best effort; a returned error is not retried.
type Broadcaster interface {
	JoinGroup(ctx context.Context, conn registry.ConnectionID, group string) error
	LeaveGroup(ctx context.Context, conn registry.ConnectionID, group string) error
	SendToGroup(ctx context.Context, group string, event events.Event) error
	SendToConnection(ctx context.Context, conn registry.ConnectionID, event events.Event) error
}
