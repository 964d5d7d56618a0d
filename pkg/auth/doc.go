// Package auth resolves who is on the other end of an event stream.
//
// # Overview
//
// A Principal is the identity plus the claims the authorizers need: group
// aliases, allowed sections, start nodes and account state. Principals are
// built from the user tables by a PrincipalBuilder and are read-only once
// built.
//
// # Connect-time resolution
//
// Resolvers turn an incoming HTTP request into a Principal:
//
//	resolver := auth.NewChainResolver(
//		auth.NewTokenResolver(db, builder),
//		oidcResolver,
//	)
//	principal, err := resolver.ResolvePrincipal(ctx, r)
//	if principal == nil {
//		// anonymous, reject the connection
//	}
//
// API tokens have the form herald_<base64url(32 random bytes)> and are stored
// as SHA-256 hashes in the api_tokens table. Browsers cannot set headers on
// an EventSource, so the token may also be passed as the access_token query
// parameter.
package auth
