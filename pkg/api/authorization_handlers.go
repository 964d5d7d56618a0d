package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/herald/pkg/auth"
	"github.com/platinummonkey/herald/pkg/authz"
	"github.com/platinummonkey/herald/pkg/httputil"
	"github.com/platinummonkey/herald/pkg/observability"
)

// AuthorizationHandlers reports which event categories a caller may receive
type AuthorizationHandlers struct {
	resolver      auth.Resolver
	authorization Authorization
	logger        *observability.Logger
}

// NewAuthorizationHandlers creates authorization handlers
func NewAuthorizationHandlers(resolver auth.Resolver, authorization Authorization, logger *observability.Logger) *AuthorizationHandlers {
	return &AuthorizationHandlers{
		resolver:      resolver,
		authorization: authorization,
		logger:        observability.OrNop(logger),
	}
}

// RegisterRoutes registers authorization routes
func (h *AuthorizationHandlers) RegisterRoutes(router *mux.Router) {
	router.Handle("/api/v1/authorization",
		PrincipalMiddleware(h.resolver)(http.HandlerFunc(h.getAuthorization)),
	).Methods(http.MethodGet)
}

type authorizationResponse struct {
	Identity string `json:"identity"`
	authz.Result
}

// getAuthorization handles GET /api/v1/authorization
func (h *AuthorizationHandlers) getAuthorization(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())
	result, err := h.authorization.AuthorizeAll(r.Context(), principal)
	if err != nil {
		var cfgErr *authz.ConfigurationError
		if errors.As(err, &cfgErr) {
			h.logger.WithError(err).Error("Authorization is misconfigured")
		}
		httputil.WriteInternalError(w, err)
		return
	}

	_ = httputil.WriteJSON(w, http.StatusOK, authorizationResponse{
		Identity: principal.Identity(),
		Result:   result,
	})
}
