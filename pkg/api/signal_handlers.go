package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/herald/pkg/httputil"
	"github.com/platinummonkey/herald/pkg/observability"
	"github.com/platinummonkey/herald/pkg/signals"
)

// SignalSecretHeader carries the shared secret on signal ingestion
const SignalSecretHeader = "X-Herald-Signal-Secret"

// maxSignalBody bounds a signal request body
const maxSignalBody = 4 << 20

// SignalHandlers ingests domain change signals from the content service
type SignalHandlers struct {
	publisher SignalPublisher
	secret    []byte
	logger    *observability.Logger
}

// NewSignalHandlers creates signal handlers
func NewSignalHandlers(publisher SignalPublisher, secret string, logger *observability.Logger) *SignalHandlers {
	return &SignalHandlers{
		publisher: publisher,
		secret:    []byte(secret),
		logger:    observability.OrNop(logger),
	}
}

// RegisterRoutes registers signal routes
func (h *SignalHandlers) RegisterRoutes(router *mux.Router) {
	router.Handle("/api/v1/signals/{name}",
		httputil.MaxBytesMiddleware(maxSignalBody)(http.HandlerFunc(h.ingest)),
	).Methods(http.MethodPost)
}

type signalRequest struct {
	Entities json.RawMessage `json:"entities"`
}

type signalResponse struct {
	Signal   signals.Name `json:"signal"`
	Entities int          `json:"entities"`
}

// ingest handles POST /api/v1/signals/{name}
func (h *SignalHandlers) ingest(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		httputil.WriteUnauthorized(w, "invalid signal secret")
		return
	}

	raw, err := httputil.ParsePathString(r, "name")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	name := signals.Name(raw)
	if !name.Valid() {
		httputil.WriteNotFoundError(w, "unknown signal: "+raw)
		return
	}
	if !h.publisher.Subscribed(name) {
		httputil.WriteNotFoundError(w, "signal has no subscribers: "+raw)
		return
	}

	var req signalRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if len(req.Entities) == 0 {
		httputil.WriteBadRequest(w, "entities is required")
		return
	}

	entities, err := signals.DecodeEntities(name, req.Entities)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	h.publisher.PublishAsync(r.Context(), signals.Signal{Name: name, Entities: entities})

	observability.FromContext(r.Context()).WithFields(map[string]interface{}{
		"signal":   name,
		"entities": len(entities),
	}).Debug("Signal accepted")

	_ = httputil.WriteAccepted(w, signalResponse{Signal: name, Entities: len(entities)})
}

func (h *SignalHandlers) authorized(r *http.Request) bool {
	if len(h.secret) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(r.Header.Get(SignalSecretHeader)), h.secret) == 1
}
