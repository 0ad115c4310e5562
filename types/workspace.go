package types

import "time"

// Role is the authorization level a user holds within one workspace.
type Role string

const (
	RoleCTO      Role = "cto"
	RoleAdmin    Role = "admin"
	RoleTechLead Role = "tech-lead"
	RoleCustomer Role = "customer"
)

// ValidRole reports whether r is one of the known workspace roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleCTO, RoleAdmin, RoleTechLead, RoleCustomer:
		return true
	}
	return false
}

// Workspace is a tenant boundary that users join under a role.
type Workspace struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	LogoURL     *string   `json:"logo_url" db:"logo_url"`
	Description string    `json:"description" db:"description"`
	OwnerID     string    `json:"owner_id" db:"owner_id"`
	IsPublic    bool      `json:"is_public" db:"is_public"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// WorkspaceMember relates a user to a workspace with exactly one role.
// At most one row exists per (UserID, WorkspaceID) pair.
type WorkspaceMember struct {
	UserID      string    `json:"user_id" db:"user_id"`
	WorkspaceID string    `json:"workspace_id" db:"workspace_id"`
	Role        Role      `json:"role" db:"role"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// WorkspaceWithOwner decorates a workspace with the public projection of
// its owner and whether the requesting user has joined it.
type WorkspaceWithOwner struct {
	Workspace
	Owner    PublicUser `json:"owner"`
	IsJoined bool       `json:"isJoined"`
}

// MemberProfile is a workspace member as listed to other members: the
// public user plus role and join time.
type MemberProfile struct {
	PublicUser
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// WorkspaceInvite is a single-use, expiring token that grants workspace
// membership to whoever redeems it.
type WorkspaceInvite struct {
	ID          string     `json:"id" db:"id"`
	Token       string     `json:"token" db:"token"`
	WorkspaceID string     `json:"workspace_id" db:"workspace_id"`
	InviterID   string     `json:"inviter_id" db:"inviter_id"`
	Email       *string    `json:"email" db:"email"`
	ExpiresAt   time.Time  `json:"expires_at" db:"expires_at"`
	UsedAt      *time.Time `json:"used_at" db:"used_at"`
	UsedByID    *string    `json:"used_by_id" db:"used_by_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}
