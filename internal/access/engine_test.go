package access

import (
	"net/http"
	"testing"

	"github.com/clinica-salud/pacientes-api/pkg/config"
	pkgerrors "github.com/clinica-salud/pacientes-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDefaultPolicies(t *testing.T) {
	engine := NewEngine(config.DefaultPolicies())

	cases := []struct {
		name    string
		role    string
		req     Requirement
		allowed bool
	}{
		{"admin on AdminOnly", RoleAdmin, Policy(config.PolicyAdminOnly), true},
		{"medico on AdminOnly", RoleMedico, Policy(config.PolicyAdminOnly), false},
		{"recepcionista on AdminOnly", RoleRecepcionista, Policy(config.PolicyAdminOnly), false},
		{"medico on MedicoOrAdmin", RoleMedico, Policy(config.PolicyMedicoOrAdmin), true},
		{"recepcionista on MedicoOrAdmin", RoleRecepcionista, Policy(config.PolicyMedicoOrAdmin), false},
		{"recepcionista on PersonalClinica", RoleRecepcionista, Policy(config.PolicyPersonalClinica), true},
		{"role match ignores case", "Admin", Policy(config.PolicyAdminOnly), true},
		{"unknown role on PersonalClinica", "auditor", Policy(config.PolicyPersonalClinica), false},
		{"empty role on inline roles", "", AnyRole(RoleAdmin), false},
		{"inline roles", RoleRecepcionista, AnyRole(RoleAdmin, RoleRecepcionista), true},
		{"inline roles reject", RoleMedico, AnyRole(RoleAdmin, RoleRecepcionista), false},
		{"authenticated admits any role", "auditor", Authenticated(), true},
		{"policy or inline role", RoleRecepcionista, Requirement{Policy: config.PolicyAdminOnly, Roles: []string{RoleRecepcionista}}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := engine.Check(tc.role, tc.req)
			if tc.allowed {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
			assert.Equal(t, http.StatusForbidden, pkgerrors.MetadataFor(pkgerrors.CodeOf(err)).HTTPStatus)
		})
	}
}

func TestCheckUnknownPolicyIsInternal(t *testing.T) {
	engine := NewEngine(config.DefaultPolicies())
	err := engine.Check(RoleAdmin, Policy("Auditoria"))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInternal, pkgerrors.CodeOf(err))
}

func TestConfiguredPolicyExtendsDefaults(t *testing.T) {
	var override config.PolicySet
	require.NoError(t, override.Decode(`{"Auditoria":["auditor","admin"]}`))

	engine := NewEngine(config.DefaultPolicies().Merge(override))
	assert.NoError(t, engine.Check("auditor", Policy("Auditoria")))
	assert.NoError(t, engine.Check(RoleAdmin, Policy(config.PolicyAdminOnly)))
	assert.Error(t, engine.Check("auditor", Policy(config.PolicyAdminOnly)))
}

func TestTableLookup(t *testing.T) {
	table := Table{
		RouteKey(http.MethodGet, "/api/admin/users"):               Policy(config.PolicyAdminOnly),
		RouteKey(http.MethodDelete, "/api/pacientes/{id}/"):        Policy(config.PolicyMedicoOrAdmin),
		RouteKey(http.MethodPost, "/api/admin/create-appointment"): AnyRole(RoleAdmin, RoleRecepcionista),
	}

	req, ok := table.Lookup("get", "/api/admin/users/")
	require.True(t, ok)
	assert.Equal(t, config.PolicyAdminOnly, req.Policy)

	req, ok = table.Lookup(http.MethodDelete, "/api/pacientes/{id}")
	require.True(t, ok)
	assert.Equal(t, config.PolicyMedicoOrAdmin, req.Policy)

	_, ok = table.Lookup(http.MethodPost, "/api/admin/users")
	assert.False(t, ok)

	assert.Equal(t, "GET /", RouteKey("GET", ""))
}

func TestTableValidate(t *testing.T) {
	engine := NewEngine(config.DefaultPolicies())
	assert.NoError(t, Table{"GET /a": Policy(config.PolicyAdminOnly), "GET /b": Authenticated()}.Validate(engine))
	assert.Error(t, Table{"GET /a": Policy("Missing")}.Validate(engine))
}
