package types

import "time"

// AuthContext is the per-request authorization state of an authenticated
// caller: the public user plus the live set of workspace memberships.
type AuthContext struct {
	User        PublicUser        `json:"user"`
	Memberships []WorkspaceMember `json:"workspaceProfiles"`
}

// Membership returns the caller's membership in the given workspace, or
// nil when the caller is not a member.
func (c *AuthContext) Membership(workspaceID string) *WorkspaceMember {
	for i := range c.Memberships {
		if c.Memberships[i].WorkspaceID == workspaceID {
			return &c.Memberships[i]
		}
	}
	return nil
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// LoginStats summarizes a user's recorded login attempts.
type LoginStats struct {
	Successes int `json:"successes"`
	Failures  int `json:"failures"`
}

// LoginAudit is an append-only record of one login attempt. Rows are
// written for every attempt, successful or not, and never mutated.
type LoginAudit struct {
	ID            string    `json:"id" db:"id"`
	UserID        *string   `json:"user_id" db:"user_id"`
	AttemptedAt   time.Time `json:"attempted_at" db:"attempted_at"`
	IPAddress     string    `json:"ip_address" db:"ip_address"`
	UserAgent     string    `json:"user_agent" db:"user_agent"`
	Success       bool      `json:"login_successful" db:"login_successful"`
	FailureReason *string   `json:"failure_reason" db:"failure_reason"`
}
