package api

import (
	"context"
	"net/http"

	"github.com/platinummonkey/herald/pkg/auth"
	"github.com/platinummonkey/herald/pkg/contextkeys"
	"github.com/platinummonkey/herald/pkg/httputil"
	"github.com/platinummonkey/herald/pkg/observability"
)

// PrincipalMiddleware resolves the caller and stores the principal and its
// identity in the request context. Anonymous callers get 401.
func PrincipalMiddleware(resolver auth.Resolver) httputil.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := resolver.ResolvePrincipal(r.Context(), r)
			if err != nil {
				observability.FromContext(r.Context()).WithError(err).Warn("Failed to resolve principal")
				httputil.WriteUnauthorized(w, "invalid credentials")
				return
			}
			if principal == nil {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}

			ctx := contextkeys.WithPrincipal(r.Context(), principal)
			ctx = contextkeys.WithIdentity(ctx, principal.Identity())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext returns the principal stored by PrincipalMiddleware
func PrincipalFromContext(ctx context.Context) *auth.Principal {
	principal, _ := ctx.Value(contextkeys.PrincipalKey).(*auth.Principal)
	return principal
}
