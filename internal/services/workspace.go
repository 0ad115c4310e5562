package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"net/url"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/techradar/apiserver/internal/store"
	"github.com/techradar/apiserver/types"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
	inviteTokenBytes = 32
	inviteTTL        = 24 * time.Hour
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// WorkspaceRepository defines persistence operations for workspaces.
type WorkspaceRepository interface {
	GetByID(ctx context.Context, id string) (types.WorkspaceWithOwner, error)
	GetBySlug(ctx context.Context, slug string) (types.WorkspaceWithOwner, error)
	List(ctx context.Context, filter store.WorkspaceFilter) ([]types.WorkspaceWithOwner, error)
	Create(ctx context.Context, ws types.Workspace) (types.Workspace, error)
	UpdateLogoURL(ctx context.Context, id, logoURL string) error
}

// MembershipRepository defines persistence operations for memberships.
type MembershipRepository interface {
	MembershipReader
	Get(ctx context.Context, userID, workspaceID string) (types.WorkspaceMember, error)
	ListProfilesByWorkspace(ctx context.Context, workspaceID string) ([]types.MemberProfile, error)
	Create(ctx context.Context, member types.WorkspaceMember) (types.WorkspaceMember, error)
	UpdateRole(ctx context.Context, userID, workspaceID string, role types.Role) error
	Delete(ctx context.Context, userID, workspaceID string) error
}

// InviteRepository defines persistence operations for workspace invites.
type InviteRepository interface {
	Create(ctx context.Context, invite types.WorkspaceInvite) (types.WorkspaceInvite, error)
	GetByToken(ctx context.Context, token string) (types.WorkspaceInvite, error)
	MarkUsed(ctx context.Context, id, usedByID string) error
}

// LogoStore persists uploaded workspace logos and returns their public URL.
type LogoStore interface {
	PutLogo(ctx context.Context, workspaceID, filename, contentType string, r io.Reader, size int64) (string, error)
}

// CreateWorkspaceInput is the validated shape for workspace creation.
type CreateWorkspaceInput struct {
	Name        string
	Slug        string
	Description string
	LogoURL     *string
	IsPublic    bool
}

// ListWorkspacesFilter narrows a workspace listing for one caller.
type ListWorkspacesFilter struct {
	Joined *bool
	Slug   string
	Search string
	Limit  int
	Offset int
}

// WorkspacePage is one page of a workspace listing.
type WorkspacePage struct {
	Entries    []types.WorkspaceWithOwner `json:"entries"`
	Pagination Pagination                 `json:"pagination"`
}

// Pagination describes the window a page covers.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Count   int  `json:"count"`
	HasMore bool `json:"hasMore"`
}

// WorkspaceService implements workspace lifecycle and membership
// management. Role gating happens in the handlers via the authority
// functions; this service enforces the remaining business rules.
type WorkspaceService struct {
	workspaces  WorkspaceRepository
	memberships MembershipRepository
	invites     InviteRepository
	logos       LogoStore
}

// NewWorkspaceService constructs a WorkspaceService. logos may be nil
// when no object storage is configured.
func NewWorkspaceService(
	workspaces WorkspaceRepository,
	memberships MembershipRepository,
	invites InviteRepository,
	logos LogoStore,
) *WorkspaceService {
	return &WorkspaceService{
		workspaces:  workspaces,
		memberships: memberships,
		invites:     invites,
		logos:       logos,
	}
}

// Create validates input, creates the workspace and enrolls the creator
// as an admin member. Ownership is recorded separately from the role.
func (s *WorkspaceService) Create(ctx context.Context, ownerID string, input CreateWorkspaceInput) (types.Workspace, error) {
	if err := validateWorkspaceInput(input); err != nil {
		return types.Workspace{}, err
	}

	if _, err := s.workspaces.GetBySlug(ctx, input.Slug); err == nil {
		return types.Workspace{}, ErrSlugTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.Workspace{}, fmt.Errorf("check slug: %w", err)
	}

	ws, err := s.workspaces.Create(ctx, types.Workspace{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Slug:        input.Slug,
		LogoURL:     input.LogoURL,
		Description: input.Description,
		OwnerID:     ownerID,
		IsPublic:    input.IsPublic,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.Workspace{}, ErrSlugTaken
		}
		return types.Workspace{}, fmt.Errorf("create workspace: %w", err)
	}

	if _, err := s.memberships.Create(ctx, types.WorkspaceMember{
		UserID:      ownerID,
		WorkspaceID: ws.ID,
		Role:        types.RoleAdmin,
	}); err != nil {
		return types.Workspace{}, fmt.Errorf("enroll creator: %w", err)
	}
	return ws, nil
}

// List returns the workspaces visible to the caller: public ones plus
// any the caller has joined, further narrowed by the filter.
func (s *WorkspaceService) List(ctx context.Context, authCtx *types.AuthContext, filter ListWorkspacesFilter) (WorkspacePage, error) {
	if filter.Limit < 1 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	joinedIDs := make([]string, 0, len(authCtx.Memberships))
	for _, m := range authCtx.Memberships {
		joinedIDs = append(joinedIDs, m.WorkspaceID)
	}

	page := WorkspacePage{
		Entries: []types.WorkspaceWithOwner{},
		Pagination: Pagination{
			Limit:  filter.Limit,
			Offset: filter.Offset,
		},
	}
	if filter.Joined != nil && *filter.Joined && len(joinedIDs) == 0 {
		return page, nil
	}

	entries, err := s.workspaces.List(ctx, store.WorkspaceFilter{
		MemberWorkspaceIDs: joinedIDs,
		Joined:             filter.Joined,
		Slug:               filter.Slug,
		Search:             filter.Search,
		Limit:              filter.Limit,
		Offset:             filter.Offset,
	})
	if err != nil {
		return WorkspacePage{}, fmt.Errorf("list workspaces: %w", err)
	}

	for i := range entries {
		entries[i].IsJoined = authCtx.Membership(entries[i].ID) != nil
	}
	page.Entries = entries
	page.Pagination.Count = len(entries)
	page.Pagination.HasMore = len(entries) == filter.Limit
	return page, nil
}

// Get returns one workspace with owner projection and isJoined flag.
func (s *WorkspaceService) Get(ctx context.Context, authCtx *types.AuthContext, workspaceID string) (types.WorkspaceWithOwner, error) {
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return types.WorkspaceWithOwner{}, err
	}
	ws.IsJoined = authCtx.Membership(ws.ID) != nil
	return ws, nil
}

// Join enrolls the caller as a customer of a public workspace.
func (s *WorkspaceService) Join(ctx context.Context, userID, workspaceID string) error {
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return err
	}
	if !ws.IsPublic {
		return ErrPrivateWorkspace
	}

	if _, err := s.memberships.Get(ctx, userID, workspaceID); err == nil {
		return ErrAlreadyMember
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("check membership: %w", err)
	}

	_, err = s.memberships.Create(ctx, types.WorkspaceMember{
		UserID:      userID,
		WorkspaceID: workspaceID,
		Role:        types.RoleCustomer,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return ErrAlreadyMember
	}
	return err
}

// Leave removes the caller's membership. Owners cannot leave their own
// workspace.
func (s *WorkspaceService) Leave(ctx context.Context, userID, workspaceID string) error {
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return err
	}
	if ws.OwnerID == userID {
		return ErrOwnerCannotLeave
	}
	return s.memberships.Delete(ctx, userID, workspaceID)
}

// Members lists the workspace's members with public user projections.
func (s *WorkspaceService) Members(ctx context.Context, workspaceID string) ([]types.MemberProfile, error) {
	return s.memberships.ListProfilesByWorkspace(ctx, workspaceID)
}

// ChangeMemberRole updates another member's role. Callers may not change
// their own role; the CTO gate is enforced by the handler.
func (s *WorkspaceService) ChangeMemberRole(ctx context.Context, callerID, workspaceID, userID string, role types.Role) error {
	if callerID == userID {
		return ErrCannotModifySelf
	}
	if !types.ValidRole(role) {
		return invalidField("role", "unknown role")
	}
	return s.memberships.UpdateRole(ctx, userID, workspaceID, role)
}

// RemoveMember removes another member from the workspace. Neither the
// caller itself nor the workspace owner can be removed.
func (s *WorkspaceService) RemoveMember(ctx context.Context, callerID, workspaceID, userID string) error {
	if callerID == userID {
		return ErrCannotModifySelf
	}
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return err
	}
	if ws.OwnerID == userID {
		return ErrCannotRemoveOwner
	}
	return s.memberships.Delete(ctx, userID, workspaceID)
}

// CreateInvite mints a single-use invite token valid for 24 hours.
func (s *WorkspaceService) CreateInvite(ctx context.Context, inviterID, workspaceID string, email *string) (types.WorkspaceInvite, error) {
	if email != nil {
		if _, err := mail.ParseAddress(*email); err != nil {
			return types.WorkspaceInvite{}, invalidField("email", "must be a valid email address")
		}
	}

	buf := make([]byte, inviteTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return types.WorkspaceInvite{}, fmt.Errorf("generate invite token: %w", err)
	}

	return s.invites.Create(ctx, types.WorkspaceInvite{
		ID:          uuid.NewString(),
		Token:       hex.EncodeToString(buf),
		WorkspaceID: workspaceID,
		InviterID:   inviterID,
		Email:       email,
		ExpiresAt:   time.Now().Add(inviteTTL),
	})
}

// InviteDetail pairs an invite with its workspace for display before
// acceptance.
type InviteDetail struct {
	Invite    types.WorkspaceInvite    `json:"invite"`
	Workspace types.WorkspaceWithOwner `json:"workspace"`
}

// GetInvite returns a redeemable invite and its workspace. Unknown,
// expired and used tokens are indistinguishable to the caller.
func (s *WorkspaceService) GetInvite(ctx context.Context, token string) (InviteDetail, error) {
	invite, err := s.redeemableInvite(ctx, token)
	if err != nil {
		return InviteDetail{}, err
	}
	ws, err := s.workspaces.GetByID(ctx, invite.WorkspaceID)
	if err != nil {
		return InviteDetail{}, fmt.Errorf("fetch invited workspace: %w", err)
	}
	return InviteDetail{Invite: invite, Workspace: ws}, nil
}

// AcceptInvite redeems an invite, enrolling the caller as a customer.
func (s *WorkspaceService) AcceptInvite(ctx context.Context, userID, token string) (types.WorkspaceMember, error) {
	invite, err := s.redeemableInvite(ctx, token)
	if err != nil {
		return types.WorkspaceMember{}, err
	}

	if _, err := s.memberships.Get(ctx, userID, invite.WorkspaceID); err == nil {
		return types.WorkspaceMember{}, ErrAlreadyMember
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.WorkspaceMember{}, fmt.Errorf("check membership: %w", err)
	}

	member, err := s.memberships.Create(ctx, types.WorkspaceMember{
		UserID:      userID,
		WorkspaceID: invite.WorkspaceID,
		Role:        types.RoleCustomer,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.WorkspaceMember{}, ErrAlreadyMember
		}
		return types.WorkspaceMember{}, fmt.Errorf("enroll invitee: %w", err)
	}

	if err := s.invites.MarkUsed(ctx, invite.ID, userID); err != nil {
		// Lost a race with a concurrent redeem; membership already stands.
		if !errors.Is(err, store.ErrNotFound) {
			return types.WorkspaceMember{}, fmt.Errorf("mark invite used: %w", err)
		}
	}
	return member, nil
}

// UploadLogo stores a logo image for the workspace and records its URL.
func (s *WorkspaceService) UploadLogo(ctx context.Context, workspaceID, filename, contentType string, r io.Reader, size int64) (string, error) {
	if s.logos == nil {
		return "", errors.New("object storage is not configured")
	}
	if _, err := s.workspaces.GetByID(ctx, workspaceID); err != nil {
		return "", err
	}

	logoURL, err := s.logos.PutLogo(ctx, workspaceID, filename, contentType, r, size)
	if err != nil {
		return "", fmt.Errorf("store logo: %w", err)
	}
	if err := s.workspaces.UpdateLogoURL(ctx, workspaceID, logoURL); err != nil {
		return "", fmt.Errorf("record logo url: %w", err)
	}
	return logoURL, nil
}

func (s *WorkspaceService) redeemableInvite(ctx context.Context, token string) (types.WorkspaceInvite, error) {
	invite, err := s.invites.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.WorkspaceInvite{}, ErrInviteInvalid
		}
		return types.WorkspaceInvite{}, fmt.Errorf("fetch invite: %w", err)
	}
	if invite.UsedAt != nil || time.Now().After(invite.ExpiresAt) {
		return types.WorkspaceInvite{}, ErrInviteInvalid
	}
	return invite, nil
}

func validateWorkspaceInput(input CreateWorkspaceInput) error {
	if len(input.Name) < 2 || len(input.Name) > 255 {
		return invalidField("name", "must be between 2 and 255 characters")
	}
	if len(input.Description) < 1 || len(input.Description) > 1024 {
		return invalidField("description", "must be between 1 and 1024 characters")
	}
	if len(input.Slug) < 2 || len(input.Slug) > 255 || !slugPattern.MatchString(input.Slug) {
		return invalidField("slug", "only lowercase letters, numbers and hyphens")
	}
	if input.LogoURL != nil {
		parsed, err := url.Parse(*input.LogoURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return invalidField("logo_url", "must be a valid URL")
		}
	}
	return nil
}
