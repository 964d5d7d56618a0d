// Package authz decides which event categories a principal may receive.
//
// An Authorizer claims one or more categories and answers yes or no for a
// principal. Several authorizers may claim the same category; the Aggregator
// combines them with AND semantics in registration order and stops at the
// first denial.
//
//	aggregator := authz.NewAggregator(authz.DefaultAuthorizers(policies),
//		authz.WithMetrics(metrics),
//		authz.WithLogger(logger),
//	)
//	result, err := aggregator.AuthorizeAll(ctx, principal)
//
// A category that no authorizer claims is a wiring defect. AuthorizeAll and
// AuthorizeOne report it as a *ConfigurationError before evaluating anything.
package authz
