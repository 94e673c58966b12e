package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const (
	PolicyAdminOnly       = "AdminOnly"
	PolicyMedicoOrAdmin   = "MedicoOrAdmin"
	PolicyPersonalClinica = "PersonalClinica"
)

// PolicySet maps a named access policy to the roles it admits.
type PolicySet map[string][]string

// DefaultPolicies returns the policies the clinic ships with.
func DefaultPolicies() PolicySet {
	return PolicySet{
		PolicyAdminOnly:       {"admin"},
		PolicyMedicoOrAdmin:   {"medico", "admin"},
		PolicyPersonalClinica: {"medico", "recepcionista", "admin"},
	}
}

// Decode implements envconfig.Decoder for CLINICA_ACCESS_POLICIES, e.g.
// {"AdminOnly":["admin"],"Auditoria":["admin","auditor"]}.
func (p *PolicySet) Decode(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		*p = nil
		return nil
	}
	var raw map[string][]string
	if err := json.Unmarshal([]byte(value), &raw); err != nil {
		return fmt.Errorf("access policies must be a JSON object of role lists: %w", err)
	}
	out := make(PolicySet, len(raw))
	for name, roles := range raw {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("access policy name cannot be empty")
		}
		normalized := normalizeRoles(roles)
		if len(normalized) == 0 {
			return fmt.Errorf("access policy %q must allow at least one role", name)
		}
		out[name] = normalized
	}
	*p = out
	return nil
}

// Merge returns a copy of p with every entry of override applied on top.
func (p PolicySet) Merge(override PolicySet) PolicySet {
	out := make(PolicySet, len(p)+len(override))
	for name, roles := range p {
		out[name] = normalizeRoles(roles)
	}
	for name, roles := range override {
		out[name] = normalizeRoles(roles)
	}
	return out
}

// Names lists the configured policy names in a stable order.
func (p PolicySet) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	seen := map[string]struct{}{}
	for _, role := range roles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role == "" {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out
}
