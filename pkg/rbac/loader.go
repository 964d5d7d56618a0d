package rbac

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PolicyFile is the YAML document accepted by LoadPolicyFile
type PolicyFile struct {
	Policies []Policy `yaml:"policies"`
}

// ParsePolicies decodes a policy document
func ParsePolicies(data []byte) ([]Policy, error) {
	var file PolicyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse policies: %w", err)
	}
	for i, p := range file.Policies {
		if p.Name == "" {
			return nil, fmt.Errorf("policy %d has no name", i)
		}
		if !p.AdminOnly && len(p.Sections) == 0 && len(p.Groups) == 0 {
			return nil, fmt.Errorf("policy %s grants nothing: set sections, groups or adminOnly", p.Name)
		}
	}
	return file.Policies, nil
}

// LoadPolicyFile returns the built-in policies with the file's policies
// merged over them. An empty path yields the built-ins.
func LoadPolicyFile(path string) (*PolicySet, error) {
	set := NewDefaultPolicySet()
	if path == "" {
		return set, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	policies, err := ParsePolicies(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, p := range policies {
		set.Set(p)
	}
	return set, nil
}
