package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techradar/apiserver/types"
)

func memberContext(workspaceID string, role types.Role) *types.AuthContext {
	return &types.AuthContext{
		User: types.PublicUser{ID: "user-1"},
		Memberships: []types.WorkspaceMember{
			{UserID: "user-1", WorkspaceID: workspaceID, Role: role},
		},
	}
}

func TestRequireMembership(t *testing.T) {
	authCtx := memberContext("ws-1", types.RoleCustomer)

	got, err := RequireMembership(authCtx, "ws-1")
	require.NoError(t, err)
	assert.Same(t, authCtx, got)

	_, err = RequireMembership(authCtx, "ws-2")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = RequireMembership(nil, "ws-1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		held     types.Role
		required types.Role
		allowed  bool
	}{
		{"cto passes cto gate", types.RoleCTO, types.RoleCTO, true},
		{"admin fails cto gate", types.RoleAdmin, types.RoleCTO, false},
		{"tech-lead fails cto gate", types.RoleTechLead, types.RoleCTO, false},
		{"customer fails cto gate", types.RoleCustomer, types.RoleCTO, false},
		{"customer passes customer gate", types.RoleCustomer, types.RoleCustomer, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RequireRole(memberContext("ws-1", tt.held), "ws-1", tt.required)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrForbidden)
			}
		})
	}
}

func TestRequireAnyRole(t *testing.T) {
	gate := []types.Role{types.RoleCTO, types.RoleTechLead}

	tests := []struct {
		held    types.Role
		allowed bool
	}{
		{types.RoleCTO, true},
		{types.RoleTechLead, true},
		{types.RoleAdmin, false},
		{types.RoleCustomer, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.held), func(t *testing.T) {
			_, err := RequireAnyRole(memberContext("ws-1", tt.held), "ws-1", gate...)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrForbidden)
			}
		})
	}

	t.Run("non-member", func(t *testing.T) {
		_, err := RequireAnyRole(memberContext("ws-2", types.RoleCTO), "ws-1", gate...)
		assert.ErrorIs(t, err, ErrForbidden)
	})
	t.Run("anonymous", func(t *testing.T) {
		_, err := RequireAnyRole(nil, "ws-1", gate...)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}
