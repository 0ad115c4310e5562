package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/techradar/apiserver/types"
)

// TechnologyRepository handles persistence for radar technologies.
type TechnologyRepository struct {
	db *sql.DB
}

func NewTechnologyRepository(db *sql.DB) *TechnologyRepository {
	return &TechnologyRepository{db: db}
}

func (r *TechnologyRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]types.Technology, error) {
	const query = `
		SELECT id, workspace_id, name, logo_url, category, description, ring, ring_description,
			status, published_at, created_at, updated_at
		FROM technologies
		WHERE workspace_id = $1
		ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var techs []types.Technology
	for rows.Next() {
		tech, err := scanTechnology(rows.Scan)
		if err != nil {
			return nil, err
		}
		techs = append(techs, tech)
	}
	return techs, rows.Err()
}

func (r *TechnologyRepository) GetByID(ctx context.Context, id string) (types.Technology, error) {
	const query = `
		SELECT id, workspace_id, name, logo_url, category, description, ring, ring_description,
			status, published_at, created_at, updated_at
		FROM technologies
		WHERE id = $1`
	tech, err := scanTechnology(r.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Technology{}, ErrNotFound
		}
		return types.Technology{}, err
	}
	return tech, nil
}

func (r *TechnologyRepository) Create(ctx context.Context, tech types.Technology) (types.Technology, error) {
	now := time.Now()
	tech.CreatedAt = now
	tech.UpdatedAt = now

	const query = `
		INSERT INTO technologies (id, workspace_id, name, logo_url, category, description, ring,
			ring_description, status, published_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		tech.ID,
		tech.WorkspaceID,
		tech.Name,
		tech.LogoURL,
		tech.Category,
		tech.Description,
		tech.Ring,
		tech.RingDescription,
		tech.Status,
		tech.PublishedAt,
		tech.CreatedAt,
		tech.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return types.Technology{}, ErrDuplicate
		}
		return types.Technology{}, err
	}
	return tech, nil
}

func (r *TechnologyRepository) Update(ctx context.Context, tech types.Technology) (types.Technology, error) {
	tech.UpdatedAt = time.Now()

	const query = `
		UPDATE technologies
		SET name = $1,
			logo_url = $2,
			category = $3,
			description = $4,
			ring = $5,
			ring_description = $6,
			status = $7,
			published_at = $8,
			updated_at = $9
		WHERE id = $10`
	result, err := r.db.ExecContext(
		ctx,
		query,
		tech.Name,
		tech.LogoURL,
		tech.Category,
		tech.Description,
		tech.Ring,
		tech.RingDescription,
		tech.Status,
		tech.PublishedAt,
		tech.UpdatedAt,
		tech.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Technology{}, ErrDuplicate
		}
		return types.Technology{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Technology{}, err
	}
	if affected == 0 {
		return types.Technology{}, ErrNotFound
	}
	return tech, nil
}

func (r *TechnologyRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM technologies WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
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

func scanTechnology(scan func(dest ...any) error) (types.Technology, error) {
	var tech types.Technology
	err := scan(
		&tech.ID,
		&tech.WorkspaceID,
		&tech.Name,
		&tech.LogoURL,
		&tech.Category,
		&tech.Description,
		&tech.Ring,
		&tech.RingDescription,
		&tech.Status,
		&tech.PublishedAt,
		&tech.CreatedAt,
		&tech.UpdatedAt,
	)
	if err != nil {
		return types.Technology{}, err
	}
	return tech, nil
}
