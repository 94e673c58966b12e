package access

import (
	"fmt"
	"strings"

	"github.com/clinica-salud/pacientes-api/pkg/config"
	pkgerrors "github.com/clinica-salud/pacientes-api/pkg/errors"
)

// Known roles. The set is open: any profile stored on a user is a role.
const (
	RoleAdmin         = "admin"
	RoleMedico        = "medico"
	RoleRecepcionista = "recepcionista"
)

// Requirement describes who may reach a route. The zero value admits any
// authenticated identity. When both Policy and Roles are set, a role listed
// in either is admitted.
type Requirement struct {
	Policy string
	Roles  []string
}

// Authenticated admits any identity holding a valid token.
func Authenticated() Requirement {
	return Requirement{}
}

// Policy admits the roles of the named policy.
func Policy(name string) Requirement {
	return Requirement{Policy: name}
}

// AnyRole admits the literal roles given.
func AnyRole(roles ...string) Requirement {
	return Requirement{Roles: roles}
}

// IsOpen reports whether the requirement only needs authentication.
func (r Requirement) IsOpen() bool {
	return r.Policy == "" && len(r.Roles) == 0
}

// Engine evaluates requirements against the configured named policies.
type Engine struct {
	policies map[string]map[string]struct{}
}

// NewEngine indexes the policy set for lookups.
func NewEngine(policies config.PolicySet) *Engine {
	index := make(map[string]map[string]struct{}, len(policies))
	for name, roles := range policies {
		set := make(map[string]struct{}, len(roles))
		for _, role := range roles {
			set[normalizeRole(role)] = struct{}{}
		}
		index[name] = set
	}
	return &Engine{policies: index}
}

// HasPolicy reports whether name is configured.
func (e *Engine) HasPolicy(name string) bool {
	_, ok := e.policies[name]
	return ok
}

// Check returns nil when role satisfies req, a Forbidden error when it does
// not, and an Internal error when req names a policy nobody configured.
func (e *Engine) Check(role string, req Requirement) error {
	if req.IsOpen() {
		return nil
	}
	role = normalizeRole(role)

	for _, allowed := range req.Roles {
		if role != "" && normalizeRole(allowed) == role {
			return nil
		}
	}

	if req.Policy != "" {
		set, ok := e.policies[req.Policy]
		if !ok {
			return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("access policy %q is not configured", req.Policy))
		}
		if _, ok := set[role]; ok && role != "" {
			return nil
		}
	}

	return pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted")
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
