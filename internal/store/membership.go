package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/techradar/apiserver/types"
)

// MembershipRepository handles persistence for workspace memberships.
type MembershipRepository struct {
	db *sql.DB
}

func NewMembershipRepository(db *sql.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) ListByUser(ctx context.Context, userID string) ([]types.WorkspaceMember, error) {
	const query = `
		SELECT user_id, workspace_id, role, created_at, updated_at
		FROM workspace_members
		WHERE user_id = $1
		ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []types.WorkspaceMember
	for rows.Next() {
		var m types.WorkspaceMember
		if err := rows.Scan(&m.UserID, &m.WorkspaceID, &m.Role, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *MembershipRepository) Get(ctx context.Context, userID, workspaceID string) (types.WorkspaceMember, error) {
	const query = `
		SELECT user_id, workspace_id, role, created_at, updated_at
		FROM workspace_members
		WHERE user_id = $1 AND workspace_id = $2`
	var m types.WorkspaceMember
	err := r.db.QueryRowContext(ctx, query, userID, workspaceID).
		Scan(&m.UserID, &m.WorkspaceID, &m.Role, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.WorkspaceMember{}, ErrNotFound
		}
		return types.WorkspaceMember{}, err
	}
	return m, nil
}

// ListProfilesByWorkspace returns each member of a workspace joined with
// the public projection of its user.
func (r *MembershipRepository) ListProfilesByWorkspace(ctx context.Context, workspaceID string) ([]types.MemberProfile, error) {
	const query = `
		SELECT u.id, u.name, u.email, u.created_at, u.updated_at, wm.role, wm.created_at
		FROM workspace_members wm
		JOIN users u ON u.id = wm.user_id
		WHERE wm.workspace_id = $1
		ORDER BY wm.created_at`
	rows, err := r.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []types.MemberProfile
	for rows.Next() {
		var p types.MemberProfile
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Email,
			&p.CreatedAt,
			&p.UpdatedAt,
			&p.Role,
			&p.JoinedAt,
		); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *MembershipRepository) Create(ctx context.Context, member types.WorkspaceMember) (types.WorkspaceMember, error) {
	now := time.Now()
	member.CreatedAt = now
	member.UpdatedAt = now

	const query = `
		INSERT INTO workspace_members (user_id, workspace_id, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		member.UserID,
		member.WorkspaceID,
		member.Role,
		member.CreatedAt,
		member.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return types.WorkspaceMember{}, ErrDuplicate
		}
		return types.WorkspaceMember{}, err
	}
	return member, nil
}

func (r *MembershipRepository) UpdateRole(ctx context.Context, userID, workspaceID string, role types.Role) error {
	const query = `
		UPDATE workspace_members
		SET role = $1, updated_at = $2
		WHERE user_id = $3 AND workspace_id = $4`
	result, err := r.db.ExecContext(ctx, query, role, time.Now(), userID, workspaceID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MembershipRepository) Delete(ctx context.Context, userID, workspaceID string) error {
	const query = `DELETE FROM workspace_members WHERE user_id = $1 AND workspace_id = $2`
	result, err := r.db.ExecContext(ctx, query, userID, workspaceID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
