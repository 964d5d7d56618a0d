package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/herald/pkg/auth"
)

func editor() *auth.Principal {
	return &auth.Principal{
		Groups:          []string{"editor"},
		AllowedSections: []string{SectionContent, SectionMedia},
		Approved:        true,
	}
}

func TestPolicy_Allows(t *testing.T) {
	tests := []struct {
		name      string
		policy    Policy
		principal *auth.Principal
		want      bool
	}{
		{"section match", Policy{Sections: []string{SectionContent}}, editor(), true},
		{"section miss", Policy{Sections: []string{SectionSettings}}, editor(), false},
		{"group match", Policy{Groups: []string{"editor"}}, editor(), true},
		{"admin bypass", Policy{Sections: []string{SectionSettings}}, &auth.Principal{Admin: true, Approved: true}, true},
		{"admin only denies editor", Policy{AdminOnly: true, Groups: []string{"editor"}}, editor(), false},
		{"admin only allows admin", Policy{AdminOnly: true}, &auth.Principal{Admin: true, Approved: true}, true},
		{"locked out admin", Policy{AdminOnly: true}, &auth.Principal{Admin: true, Approved: true, LockedOut: true}, false},
		{"unapproved", Policy{Sections: []string{SectionContent}}, &auth.Principal{AllowedSections: []string{SectionContent}}, false},
		{"nil principal", Policy{Sections: []string{SectionContent}}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Allows(tt.principal))
		})
	}
}

func TestBuiltInPolicies_UniqueNames(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range BuiltInPolicies() {
		assert.False(t, seen[p.Name], "duplicate policy %s", p.Name)
		seen[p.Name] = true
		assert.NotEmpty(t, p.Sections, p.Name)
	}
	assert.Len(t, seen, 21)
}

func TestPolicySet_Evaluate(t *testing.T) {
	set := NewDefaultPolicySet()
	ctx := context.Background()

	allowed, err := set.Evaluate(ctx, editor(), SectionAccessContentOrMedia)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = set.Evaluate(ctx, editor(), TreeAccessDataTypes)
	require.NoError(t, err)
	assert.False(t, allowed)

	_, err = set.Evaluate(ctx, editor(), "NoSuchPolicy")
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestPolicySet_SetReplaces(t *testing.T) {
	set := NewDefaultPolicySet()
	set.Set(Policy{Name: TreeAccessDataTypes, Groups: []string{"editor"}})

	allowed, err := set.Evaluate(context.Background(), editor(), TreeAccessDataTypes)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Contains(t, set.Names(), TreeAccessDataTypes)
}
