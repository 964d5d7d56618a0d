package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/herald/pkg/auth"
	"github.com/platinummonkey/herald/pkg/contextkeys"
	"github.com/platinummonkey/herald/pkg/events"
	"github.com/platinummonkey/herald/pkg/observability"
	"github.com/platinummonkey/herald/pkg/registry"
)

// DefaultKeepAlive is the interval between keep-alive comments
const DefaultKeepAlive = 15 * time.Second

// Sessions reacts to connections opening and closing. Connect must fail for
// a nil principal, and a failed Connect leaves conn in no group.
type Sessions interface {
	Connect(ctx context.Context, principal *auth.Principal, conn registry.ConnectionID) error
	Disconnect(ctx context.Context, identity string, conn registry.ConnectionID)
}

// StreamHandler serves a Hub as a Server-Sent Events stream
type StreamHandler struct {
	hub       *Hub
	resolver  auth.Resolver
	sessions  Sessions
	keepAlive time.Duration
	metrics   *observability.Metrics
	logger    *observability.Logger
}

// NewStreamHandler creates the event stream endpoint. keepAlive <= 0 uses
// DefaultKeepAlive.
func NewStreamHandler(hub *Hub, resolver auth.Resolver, sessions Sessions, keepAlive time.Duration, metrics *observability.Metrics, logger *observability.Logger) *StreamHandler {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	return &StreamHandler{
		hub:       hub,
		resolver:  resolver,
		sessions:  sessions,
		keepAlive: keepAlive,
		metrics:   metrics,
		logger:    observability.OrNop(logger),
	}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	principal, err := h.resolver.ResolvePrincipal(ctx, r)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to resolve principal for event stream")
		principal = nil
	}

	conn := registry.ConnectionID(uuid.NewString())
	ctx = contextkeys.WithConnectionID(ctx, string(conn))
	if principal != nil {
		ctx = contextkeys.WithIdentity(ctx, principal.Identity())
	}
	logger := h.logger.WithField("connection_id", string(conn))

	queue := h.hub.Open(conn)
	if err := h.sessions.Connect(ctx, principal, conn); err != nil {
		h.hub.Close(conn)
		status := http.StatusInternalServerError
		outcome := "error"
		if principal == nil {
			status = http.StatusUnauthorized
			outcome = "rejected"
		} else {
			logger.WithError(err).Error("Failed to connect event stream")
		}
		h.countConnection(outcome)
		http.Error(w, http.StatusText(status), status)
		return
	}
	h.countConnection("accepted")

	identity := principal.Identity()
	defer func() {
		h.sessions.Disconnect(context.WithoutCancel(ctx), identity, conn)
		h.hub.Close(conn)
		logger.Debug("Event stream closed")
	}()

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, ": connected %s\n\n", conn)
	flusher.Flush()
	logger.WithFields(map[string]interface{}{
		"identity": identity,
		"groups":   h.hub.Groups(conn),
	}).Debug("Event stream opened")

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case event, ok := <-queue:
			if !ok {
				return
			}
			if err := writeEvent(w, event); err != nil {
				logger.WithError(err).Debug("Failed to write event")
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.EventType, data)
	return err
}

func (h *StreamHandler) countConnection(outcome string) {
	if h.metrics != nil {
		h.metrics.ConnectionsTotal.WithLabelValues(outcome).Inc()
	}
}
