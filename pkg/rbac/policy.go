package rbac

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/platinummonkey/herald/pkg/auth"
)

// ErrUnknownPolicy is returned when a policy name is not defined
var ErrUnknownPolicy = errors.New("unknown policy")

// Back-office sections
const (
	SectionContent     = "content"
	SectionMedia       = "media"
	SectionMember      = "member"
	SectionUsers       = "users"
	SectionSettings    = "settings"
	SectionTranslation = "translation"
)

// Built-in policy names
const (
	SectionAccessContent         = "SectionAccessContent"
	SectionAccessContentOrMedia  = "SectionAccessContentOrMedia"
	SectionAccessMedia           = "SectionAccessMedia"
	SectionAccessMembers         = "SectionAccessMembers"
	SectionAccessUsers           = "SectionAccessUsers"
	SectionAccessUserGroups      = "SectionAccessUserGroups"
	SectionAccessSettings        = "SectionAccessSettings"
	TreeAccessDocumentTypes      = "TreeAccessDocumentTypes"
	TreeAccessDocumentBlueprints = "TreeAccessDocumentBlueprints"
	TreeAccessMediaTypes         = "TreeAccessMediaTypes"
	TreeAccessMemberTypes        = "TreeAccessMemberTypes"
	TreeAccessMemberGroups       = "TreeAccessMemberGroups"
	TreeAccessDataTypes          = "TreeAccessDataTypes"
	TreeAccessDictionary         = "TreeAccessDictionary"
	TreeAccessLanguages          = "TreeAccessLanguages"
	TreeAccessTemplates          = "TreeAccessTemplates"
	TreeAccessPartialViews       = "TreeAccessPartialViews"
	TreeAccessScripts            = "TreeAccessScripts"
	TreeAccessStylesheets        = "TreeAccessStylesheets"
	TreeAccessRelationTypes      = "TreeAccessRelationTypes"
	TreeAccessWebhooks           = "TreeAccessWebhooks"
)

// PolicyEvaluator decides whether a principal satisfies a named policy
type PolicyEvaluator interface {
	Evaluate(ctx context.Context, principal *auth.Principal, policyName string) (bool, error)
}

// Policy is a named access rule
type Policy struct {
	Name      string   `json:"name" yaml:"name"`
	Sections  []string `json:"sections,omitempty" yaml:"sections,omitempty"`
	Groups    []string `json:"groups,omitempty" yaml:"groups,omitempty"`
	AdminOnly bool     `json:"adminOnly,omitempty" yaml:"adminOnly,omitempty"`
}

// Allows reports whether the principal satisfies the policy
func (p Policy) Allows(principal *auth.Principal) bool {
	if principal == nil || !principal.Active() {
		return false
	}
	if principal.Admin {
		return true
	}
	if p.AdminOnly {
		return false
	}
	for _, s := range p.Sections {
		if principal.HasSection(s) {
			return true
		}
	}
	for _, g := range p.Groups {
		if principal.InGroup(g) {
			return true
		}
	}
	return false
}

// BuiltInPolicies returns the built-in policy definitions
func BuiltInPolicies() []Policy {
	settings := func(name string) Policy {
		return Policy{Name: name, Sections: []string{SectionSettings}}
	}

	return []Policy{
		{Name: SectionAccessContent, Sections: []string{SectionContent}},
		{Name: SectionAccessContentOrMedia, Sections: []string{SectionContent, SectionMedia}},
		{Name: SectionAccessMedia, Sections: []string{SectionMedia}},
		{Name: SectionAccessMembers, Sections: []string{SectionMember}},
		{Name: SectionAccessUsers, Sections: []string{SectionUsers}},
		{Name: SectionAccessUserGroups, Sections: []string{SectionUsers}},
		{Name: SectionAccessSettings, Sections: []string{SectionSettings}},
		settings(TreeAccessDocumentTypes),
		settings(TreeAccessDocumentBlueprints),
		settings(TreeAccessMediaTypes),
		settings(TreeAccessMemberTypes),
		{Name: TreeAccessMemberGroups, Sections: []string{SectionMember}},
		settings(TreeAccessDataTypes),
		{Name: TreeAccessDictionary, Sections: []string{SectionTranslation}},
		settings(TreeAccessLanguages),
		settings(TreeAccessTemplates),
		settings(TreeAccessPartialViews),
		settings(TreeAccessScripts),
		settings(TreeAccessStylesheets),
		settings(TreeAccessRelationTypes),
		settings(TreeAccessWebhooks),
	}
}

// PolicySet is a PolicyEvaluator over an in-memory table of policies. It is
// safe for concurrent use.
type PolicySet struct {
	mu       sync.RWMutex
	policies map[string]Policy
}

// NewPolicySet creates a set containing the given policies. Later entries
// replace earlier entries with the same name.
func NewPolicySet(policies ...Policy) *PolicySet {
	ps := &PolicySet{policies: make(map[string]Policy, len(policies))}
	for _, p := range policies {
		ps.policies[p.Name] = p
	}
	return ps
}

// NewDefaultPolicySet creates a set of the built-in policies
func NewDefaultPolicySet() *PolicySet {
	return NewPolicySet(BuiltInPolicies()...)
}

// Set adds or replaces a policy
func (ps *PolicySet) Set(p Policy) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.policies[p.Name] = p
}

// Get returns a policy by name
func (ps *PolicySet) Get(name string) (Policy, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	p, ok := ps.policies[name]
	return p, ok
}

// Names returns the sorted policy names
func (ps *PolicySet) Names() []string {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	names := make([]string, 0, len(ps.policies))
	for name := range ps.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Evaluate implements PolicyEvaluator
func (ps *PolicySet) Evaluate(ctx context.Context, principal *auth.Principal, policyName string) (bool, error) {
	p, ok := ps.Get(policyName)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownPolicy, policyName)
	}
	return p.Allows(principal), nil
}
