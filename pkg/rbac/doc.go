// Package rbac evaluates named access policies against a principal.
//
// A policy lists the back-office sections and user group aliases that grant
// it. A principal satisfies a policy when the account is approved, not
// locked out, and either belongs to the admin group or holds at least one of
// the listed sections or groups. Admin-only policies ignore sections and
// groups.
//
// The built-in policies cover every event category herald publishes. A YAML
// file can replace built-ins by name or add new ones:
//
//	policies:
//	  - name: TreeAccessDictionary
//	    sections: [translation, settings]
//	  - name: TreeAccessWebhooks
//	    adminOnly: true
//
//	set, err := rbac.LoadPolicyFile("/etc/herald/policies.yaml")
//	allowed, err := set.Evaluate(ctx, principal, rbac.SectionAccessContent)
package rbac
