package authz

import (
	"context"

	"github.com/platinummonkey/herald/pkg/auth"
	"github.com/platinummonkey/herald/pkg/events"
	"github.com/platinummonkey/herald/pkg/rbac"
)

// Authorizer decides, for the categories it claims, whether a principal may
// receive events
type Authorizer interface {
	Categories() []events.Category
	Authorize(ctx context.Context, principal *auth.Principal, category events.Category) (bool, error)
}

// PolicyAuthorizer authorizes its categories by evaluating one named policy
type PolicyAuthorizer struct {
	categories []events.Category
	policy     string
	evaluator  rbac.PolicyEvaluator
}

// NewPolicyAuthorizer creates an authorizer for categories backed by policy
func NewPolicyAuthorizer(evaluator rbac.PolicyEvaluator, policy string, categories ...events.Category) *PolicyAuthorizer {
	return &PolicyAuthorizer{
		categories: categories,
		policy:     policy,
		evaluator:  evaluator,
	}
}

// Categories implements Authorizer
func (a *PolicyAuthorizer) Categories() []events.Category {
	return append([]events.Category(nil), a.categories...)
}

// Authorize implements Authorizer
func (a *PolicyAuthorizer) Authorize(ctx context.Context, principal *auth.Principal, category events.Category) (bool, error) {
	return a.evaluator.Evaluate(ctx, principal, a.policy)
}

// MediaStartNodeAuthorizer allows media events only for admins and for
// principals with at least one media start node
type MediaStartNodeAuthorizer struct{}

// Categories implements Authorizer
func (MediaStartNodeAuthorizer) Categories() []events.Category {
	return []events.Category{events.CategoryMedia}
}

// Authorize implements Authorizer
func (MediaStartNodeAuthorizer) Authorize(ctx context.Context, principal *auth.Principal, category events.Category) (bool, error) {
	if principal == nil {
		return false, nil
	}
	return principal.Admin || len(principal.MediaStartNodes) > 0, nil
}

// CurrentUserAuthorizer lets every active principal hear about their own
// account
type CurrentUserAuthorizer struct{}

// Categories implements Authorizer
func (CurrentUserAuthorizer) Categories() []events.Category {
	return []events.Category{events.CategoryCurrentUser}
}

// Authorize implements Authorizer
func (CurrentUserAuthorizer) Authorize(ctx context.Context, principal *auth.Principal, category events.Category) (bool, error) {
	return principal != nil && principal.Active(), nil
}

// DefaultAuthorizers returns the authorizer set covering every category, in
// registration order
func DefaultAuthorizers(evaluator rbac.PolicyEvaluator) []Authorizer {
	policy := func(name string, categories ...events.Category) Authorizer {
		return NewPolicyAuthorizer(evaluator, name, categories...)
	}

	return []Authorizer{
		policy(rbac.SectionAccessContent, events.CategoryDocument, events.CategoryPublicAccess),
		policy(rbac.TreeAccessDocumentBlueprints, events.CategoryDocumentBlueprint),
		policy(rbac.TreeAccessDocumentTypes, events.CategoryDocumentType),
		policy(rbac.SectionAccessContentOrMedia, events.CategoryMedia),
		MediaStartNodeAuthorizer{},
		policy(rbac.TreeAccessMediaTypes, events.CategoryMediaType),
		policy(rbac.SectionAccessMembers, events.CategoryMember),
		policy(rbac.TreeAccessMemberTypes, events.CategoryMemberType),
		policy(rbac.TreeAccessMemberGroups, events.CategoryMemberGroup),
		policy(rbac.TreeAccessDataTypes, events.CategoryDataType),
		policy(rbac.TreeAccessDictionary, events.CategoryDictionary),
		policy(rbac.TreeAccessLanguages, events.CategoryLanguage),
		policy(rbac.TreeAccessScripts, events.CategoryScript),
		policy(rbac.TreeAccessStylesheets, events.CategoryStylesheet),
		policy(rbac.TreeAccessTemplates, events.CategoryTemplate),
		policy(rbac.TreeAccessPartialViews, events.CategoryPartialView),
		policy(rbac.TreeAccessRelationTypes, events.CategoryRelationType),
		policy(rbac.SectionAccessUsers, events.CategoryUser),
		policy(rbac.SectionAccessUserGroups, events.CategoryUserGroup),
		CurrentUserAuthorizer{},
		policy(rbac.TreeAccessWebhooks, events.CategoryWebhook),
	}
}
