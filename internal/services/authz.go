package services

import (
	"fmt"

	"github.com/techradar/apiserver/types"
)

// The authority functions below gate workspace-scoped operations. They
// evaluate the live membership set carried by the resolved AuthContext;
// memberships are fetched once per request at resolution time, so every
// check here is an in-memory filter.

// RequireMembership fails with ErrForbidden unless the caller holds any
// membership in the workspace. A nil context fails with ErrUnauthorized.
func RequireMembership(authCtx *types.AuthContext, workspaceID string) (*types.AuthContext, error) {
	if authCtx == nil {
		return nil, ErrUnauthorized
	}
	if authCtx.Membership(workspaceID) == nil {
		return nil, fmt.Errorf("%w: membership required in workspace %s", ErrForbidden, workspaceID)
	}
	return authCtx, nil
}

// RequireRole fails with ErrForbidden unless the caller's membership in
// the workspace carries exactly the given role. Workspace ownership
// grants no implicit role.
func RequireRole(authCtx *types.AuthContext, workspaceID string, role types.Role) (*types.AuthContext, error) {
	return RequireAnyRole(authCtx, workspaceID, role)
}

// RequireAnyRole is a short-circuiting OR over RequireRole: the caller
// passes if its membership matches any of the given roles. Roles are
// checked in the order given; order affects which candidate matches
// first, never the outcome.
func RequireAnyRole(authCtx *types.AuthContext, workspaceID string, roles ...types.Role) (*types.AuthContext, error) {
	if authCtx == nil {
		return nil, ErrUnauthorized
	}
	member := authCtx.Membership(workspaceID)
	if member != nil {
		for _, role := range roles {
			if member.Role == role {
				return authCtx, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: required role %s in workspace %s", ErrForbidden, rolesLabel(roles), workspaceID)
}

func rolesLabel(roles []types.Role) string {
	if len(roles) == 1 {
		return string(roles[0])
	}
	label := ""
	for i, role := range roles {
		if i > 0 {
			label += " or "
		}
		label += string(role)
	}
	return label
}
