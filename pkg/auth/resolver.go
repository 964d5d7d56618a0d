package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// ErrInvalidCredentials is returned when a request carries credentials that
// cannot be verified
var ErrInvalidCredentials = errors.New("invalid credentials")

// AccessTokenParam is the query parameter accepted in place of the
// Authorization header
const AccessTokenParam = "access_token"

// Resolver resolves the principal of an incoming request. Anonymous requests
// yield a nil principal and a nil error.
type Resolver interface {
	ResolvePrincipal(ctx context.Context, r *http.Request) (*Principal, error)
}

// BearerToken extracts the bearer token from the Authorization header or
// the access_token query parameter
func BearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return r.URL.Query().Get(AccessTokenParam)
}

// TokenResolver resolves herald API tokens
type TokenResolver struct {
	store   *TokenStore
	builder PrincipalBuilder
}

// NewTokenResolver creates a resolver for API tokens
func NewTokenResolver(store *TokenStore, builder PrincipalBuilder) *TokenResolver {
	return &TokenResolver{store: store, builder: builder}
}

// ResolvePrincipal ignores requests whose bearer token is not an API token
func (tr *TokenResolver) ResolvePrincipal(ctx context.Context, r *http.Request) (*Principal, error) {
	token := BearerToken(r)
	if !strings.HasPrefix(token, TokenPrefix) {
		return nil, nil
	}

	record, err := tr.store.ValidateToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return tr.builder.BuildPrincipal(ctx, record.UserKey.String())
}

// IDTokenVerifier verifies a raw ID token and returns its subject
type IDTokenVerifier interface {
	VerifySubject(ctx context.Context, rawIDToken string) (string, error)
}

type oidcVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func (v *oidcVerifier) VerifySubject(ctx context.Context, rawIDToken string) (string, error) {
	token, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return "", err
	}
	return token.Subject, nil
}

// OIDCResolver resolves OIDC ID tokens. The sub claim is the identity key.
type OIDCResolver struct {
	verifier IDTokenVerifier
	builder  PrincipalBuilder
}

// NewOIDCResolver discovers the issuer and creates a resolver that accepts
// ID tokens issued for clientID
func NewOIDCResolver(ctx context.Context, issuerURL, clientID string, builder PrincipalBuilder) (*OIDCResolver, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: clientID})
	return NewOIDCResolverWithVerifier(&oidcVerifier{verifier: verifier}, builder), nil
}

// NewOIDCResolverWithVerifier creates a resolver around an existing verifier
func NewOIDCResolverWithVerifier(verifier IDTokenVerifier, builder PrincipalBuilder) *OIDCResolver {
	return &OIDCResolver{verifier: verifier, builder: builder}
}

// ResolvePrincipal ignores requests without a bearer token and API tokens
func (o *OIDCResolver) ResolvePrincipal(ctx context.Context, r *http.Request) (*Principal, error) {
	raw := BearerToken(r)
	if raw == "" || strings.HasPrefix(raw, TokenPrefix) {
		return nil, nil
	}

	subject, err := o.verifier.VerifySubject(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to verify ID token: %v", ErrInvalidCredentials, err)
	}
	if subject == "" {
		return nil, fmt.Errorf("%w: ID token has no subject", ErrInvalidCredentials)
	}
	return o.builder.BuildPrincipal(ctx, subject)
}

// ChainResolver tries resolvers in order; the first principal wins and the
// first error stops the chain
type ChainResolver struct {
	resolvers []Resolver
}

// NewChainResolver creates a chain, skipping nil resolvers
func NewChainResolver(resolvers ...Resolver) *ChainResolver {
	chain := &ChainResolver{}
	for _, r := range resolvers {
		if r != nil {
			chain.resolvers = append(chain.resolvers, r)
		}
	}
	return chain
}

// ResolvePrincipal implements Resolver
func (c *ChainResolver) ResolvePrincipal(ctx context.Context, r *http.Request) (*Principal, error) {
	for _, resolver := range c.resolvers {
		principal, err := resolver.ResolvePrincipal(ctx, r)
		if err != nil {
			return nil, err
		}
		if principal != nil {
			return principal, nil
		}
	}
	return nil, nil
}
