package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/techradar/apiserver/types"
)

// InviteRepository handles persistence for workspace invites.
type InviteRepository struct {
	db *sql.DB
}

func NewInviteRepository(db *sql.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

func (r *InviteRepository) Create(ctx context.Context, invite types.WorkspaceInvite) (types.WorkspaceInvite, error) {
	invite.CreatedAt = time.Now()

	const query = `
		INSERT INTO workspace_invites (id, token, workspace_id, inviter_id, email, expires_at, used_at, used_by_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		invite.ID,
		invite.Token,
		invite.WorkspaceID,
		invite.InviterID,
		invite.Email,
		invite.ExpiresAt,
		invite.UsedAt,
		invite.UsedByID,
		invite.CreatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return types.WorkspaceInvite{}, ErrDuplicate
		}
		return types.WorkspaceInvite{}, err
	}
	return invite, nil
}

func (r *InviteRepository) GetByToken(ctx context.Context, token string) (types.WorkspaceInvite, error) {
	const query = `
		SELECT id, token, workspace_id, inviter_id, email, expires_at, used_at, used_by_id, created_at
		FROM workspace_invites
		WHERE token = $1`
	var invite types.WorkspaceInvite
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&invite.ID,
		&invite.Token,
		&invite.WorkspaceID,
		&invite.InviterID,
		&invite.Email,
		&invite.ExpiresAt,
		&invite.UsedAt,
		&invite.UsedByID,
		&invite.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.WorkspaceInvite{}, ErrNotFound
		}
		return types.WorkspaceInvite{}, err
	}
	return invite, nil
}

// MarkUsed stamps an invite as redeemed. Only unused invites match, so a
// concurrent double redeem loses with ErrNotFound.
func (r *InviteRepository) MarkUsed(ctx context.Context, id, usedByID string) error {
	const query = `
		UPDATE workspace_invites
		SET used_at = $1, used_by_id = $2
		WHERE id = $3 AND used_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, time.Now(), usedByID, id)
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
