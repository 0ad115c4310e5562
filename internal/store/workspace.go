package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/techradar/apiserver/types"
)

// WorkspaceRepository handles persistence for workspaces.
type WorkspaceRepository struct {
	db *sql.DB
}

func NewWorkspaceRepository(db *sql.DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

// WorkspaceFilter narrows a workspace listing. MemberWorkspaceIDs is the
// set of workspaces the caller belongs to; private workspaces outside it
// are never returned.
type WorkspaceFilter struct {
	MemberWorkspaceIDs []string
	Joined             *bool
	Slug               string
	Search             string
	Limit              int
	Offset             int
}

func (r *WorkspaceRepository) GetByID(ctx context.Context, id string) (types.WorkspaceWithOwner, error) {
	return r.getOne(ctx, "w.id = $1", id)
}

func (r *WorkspaceRepository) GetBySlug(ctx context.Context, slug string) (types.WorkspaceWithOwner, error) {
	return r.getOne(ctx, "w.slug = $1", slug)
}

func (r *WorkspaceRepository) getOne(ctx context.Context, where string, arg any) (types.WorkspaceWithOwner, error) {
	query := `
		SELECT w.id, w.name, w.slug, w.logo_url, w.description, w.owner_id, w.is_public,
			w.created_at, w.updated_at,
			u.id, u.name, u.email, u.created_at, u.updated_at
		FROM workspaces w
		JOIN users u ON u.id = w.owner_id
		WHERE ` + where
	var ws types.WorkspaceWithOwner
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&ws.ID,
		&ws.Name,
		&ws.Slug,
		&ws.LogoURL,
		&ws.Description,
		&ws.OwnerID,
		&ws.IsPublic,
		&ws.CreatedAt,
		&ws.UpdatedAt,
		&ws.Owner.ID,
		&ws.Owner.Name,
		&ws.Owner.Email,
		&ws.Owner.CreatedAt,
		&ws.Owner.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.WorkspaceWithOwner{}, ErrNotFound
		}
		return types.WorkspaceWithOwner{}, err
	}
	return ws, nil
}

func (r *WorkspaceRepository) List(ctx context.Context, filter WorkspaceFilter) ([]types.WorkspaceWithOwner, error) {
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	memberIDs := pq.Array(filter.MemberWorkspaceIDs)
	conditions := []string{"(w.is_public = TRUE OR w.id = ANY($1))"}
	args := []any{memberIDs}

	if filter.Joined != nil {
		if *filter.Joined {
			conditions = append(conditions, "w.id = ANY($1)")
		} else {
			conditions = append(conditions, "NOT (w.id = ANY($1))")
		}
	}
	if filter.Slug != "" {
		args = append(args, filter.Slug)
		conditions = append(conditions, fmt.Sprintf("w.slug = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("w.name ILIKE $%d", len(args)))
	}

	args = append(args, filter.Offset, filter.Limit)
	query := fmt.Sprintf(`
		SELECT w.id, w.name, w.slug, w.logo_url, w.description, w.owner_id, w.is_public,
			w.created_at, w.updated_at,
			u.id, u.name, u.email, u.created_at, u.updated_at
		FROM workspaces w
		JOIN users u ON u.id = w.owner_id
		WHERE %s
		ORDER BY w.created_at DESC
		OFFSET $%d LIMIT $%d`,
		strings.Join(conditions, " AND "), len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workspaces := make([]types.WorkspaceWithOwner, 0, filter.Limit)
	for rows.Next() {
		var ws types.WorkspaceWithOwner
		if err := rows.Scan(
			&ws.ID,
			&ws.Name,
			&ws.Slug,
			&ws.LogoURL,
			&ws.Description,
			&ws.OwnerID,
			&ws.IsPublic,
			&ws.CreatedAt,
			&ws.UpdatedAt,
			&ws.Owner.ID,
			&ws.Owner.Name,
			&ws.Owner.Email,
			&ws.Owner.CreatedAt,
			&ws.Owner.UpdatedAt,
		); err != nil {
			return nil, err
		}
		workspaces = append(workspaces, ws)
	}
	return workspaces, rows.Err()
}

func (r *WorkspaceRepository) Create(ctx context.Context, ws types.Workspace) (types.Workspace, error) {
	now := time.Now()
	ws.CreatedAt = now
	ws.UpdatedAt = now

	const query = `
		INSERT INTO workspaces (id, name, slug, logo_url, description, owner_id, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		ws.ID,
		ws.Name,
		ws.Slug,
		ws.LogoURL,
		ws.Description,
		ws.OwnerID,
		ws.IsPublic,
		ws.CreatedAt,
		ws.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return types.Workspace{}, ErrDuplicate
		}
		return types.Workspace{}, err
	}
	return ws, nil
}

func (r *WorkspaceRepository) UpdateLogoURL(ctx context.Context, id, logoURL string) error {
	const query = `
		UPDATE workspaces
		SET logo_url = $1, updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, logoURL, time.Now(), id)
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
