package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/techradar/apiserver/internal/store"
	"github.com/techradar/apiserver/types"
)

// TechnologyRepository defines persistence operations for radar entries.
type TechnologyRepository interface {
	ListByWorkspace(ctx context.Context, workspaceID string) ([]types.Technology, error)
	GetByID(ctx context.Context, id string) (types.Technology, error)
	Create(ctx context.Context, tech types.Technology) (types.Technology, error)
	Update(ctx context.Context, tech types.Technology) (types.Technology, error)
	Delete(ctx context.Context, id string) error
}

// TechnologyInput is the validated shape for creating or updating a
// radar entry.
type TechnologyInput struct {
	Name            string
	LogoURL         *string
	Category        types.TechnologyCategory
	Description     string
	Ring            *types.TechnologyRing
	RingDescription *string
	Status          types.TechnologyStatus
}

// TechnologyService manages workspace radar entries. Role gating (cto or
// tech-lead) happens in the handlers.
type TechnologyService struct {
	technologies TechnologyRepository
}

func NewTechnologyService(technologies TechnologyRepository) *TechnologyService {
	return &TechnologyService{technologies: technologies}
}

func (s *TechnologyService) List(ctx context.Context, workspaceID string) ([]types.Technology, error) {
	return s.technologies.ListByWorkspace(ctx, workspaceID)
}

func (s *TechnologyService) Create(ctx context.Context, workspaceID string, input TechnologyInput) (types.Technology, error) {
	if err := validateTechnologyInput(input); err != nil {
		return types.Technology{}, err
	}

	tech := types.Technology{
		ID:              uuid.NewString(),
		WorkspaceID:     workspaceID,
		Name:            input.Name,
		LogoURL:         input.LogoURL,
		Category:        input.Category,
		Description:     input.Description,
		Ring:            input.Ring,
		RingDescription: input.RingDescription,
		Status:          input.Status,
	}
	if tech.Status == types.StatusPublished {
		now := time.Now()
		tech.PublishedAt = &now
	}

	created, err := s.technologies.Create(ctx, tech)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.Technology{}, ErrDuplicateName
		}
		return types.Technology{}, fmt.Errorf("create technology: %w", err)
	}
	return created, nil
}

// Update applies the input to an existing entry. The workspace scope is
// checked so an ID from another workspace cannot be mutated through this
// route.
func (s *TechnologyService) Update(ctx context.Context, workspaceID, technologyID string, input TechnologyInput) (types.Technology, error) {
	if err := validateTechnologyInput(input); err != nil {
		return types.Technology{}, err
	}

	tech, err := s.technologies.GetByID(ctx, technologyID)
	if err != nil {
		return types.Technology{}, err
	}
	if tech.WorkspaceID != workspaceID {
		return types.Technology{}, store.ErrNotFound
	}

	tech.Name = input.Name
	tech.LogoURL = input.LogoURL
	tech.Category = input.Category
	tech.Description = input.Description
	tech.Ring = input.Ring
	tech.RingDescription = input.RingDescription
	if input.Status == types.StatusPublished && tech.Status != types.StatusPublished {
		now := time.Now()
		tech.PublishedAt = &now
	}
	if input.Status == types.StatusDraft {
		tech.PublishedAt = nil
	}
	tech.Status = input.Status

	updated, err := s.technologies.Update(ctx, tech)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.Technology{}, ErrDuplicateName
		}
		return types.Technology{}, err
	}
	return updated, nil
}

func (s *TechnologyService) Delete(ctx context.Context, workspaceID, technologyID string) error {
	tech, err := s.technologies.GetByID(ctx, technologyID)
	if err != nil {
		return err
	}
	if tech.WorkspaceID != workspaceID {
		return store.ErrNotFound
	}
	return s.technologies.Delete(ctx, technologyID)
}

func validateTechnologyInput(input TechnologyInput) error {
	if len(input.Name) < 1 || len(input.Name) > 255 {
		return invalidField("name", "must be between 1 and 255 characters")
	}
	if input.Description == "" {
		return invalidField("description", "is required")
	}
	if !types.ValidCategory(input.Category) {
		return invalidField("category", "unknown category")
	}
	if input.Ring != nil && !types.ValidRing(*input.Ring) {
		return invalidField("ring", "unknown ring")
	}
	switch input.Status {
	case types.StatusDraft:
	case types.StatusPublished:
		if input.Ring == nil {
			return invalidField("ring", "published technologies must have a ring")
		}
	default:
		return invalidField("status", "unknown status")
	}
	return nil
}
