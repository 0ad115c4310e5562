package services

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/techradar/apiserver/internal/store"
	"github.com/techradar/apiserver/types"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]types.User{}}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicate
		}
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

type membershipKey struct {
	userID      string
	workspaceID string
}

type fakeMembershipRepo struct {
	mu      sync.Mutex
	members map[membershipKey]types.WorkspaceMember
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{members: map[membershipKey]types.WorkspaceMember{}}
}

func (r *fakeMembershipRepo) ListByUser(_ context.Context, userID string) ([]types.WorkspaceMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []types.WorkspaceMember
	for _, member := range r.members {
		if member.UserID == userID {
			result = append(result, member)
		}
	}
	return result, nil
}

func (r *fakeMembershipRepo) Get(_ context.Context, userID, workspaceID string) (types.WorkspaceMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[membershipKey{userID, workspaceID}]
	if !ok {
		return types.WorkspaceMember{}, store.ErrNotFound
	}
	return member, nil
}

func (r *fakeMembershipRepo) ListProfilesByWorkspace(_ context.Context, workspaceID string) ([]types.MemberProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []types.MemberProfile
	for _, member := range r.members {
		if member.WorkspaceID == workspaceID {
			result = append(result, types.MemberProfile{
				PublicUser: types.PublicUser{ID: member.UserID},
				Role:       member.Role,
				JoinedAt:   member.CreatedAt,
			})
		}
	}
	return result, nil
}

func (r *fakeMembershipRepo) Create(_ context.Context, member types.WorkspaceMember) (types.WorkspaceMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := membershipKey{member.UserID, member.WorkspaceID}
	if _, exists := r.members[key]; exists {
		return types.WorkspaceMember{}, store.ErrDuplicate
	}
	now := time.Now()
	member.CreatedAt = now
	member.UpdatedAt = now
	r.members[key] = member
	return member, nil
}

func (r *fakeMembershipRepo) UpdateRole(_ context.Context, userID, workspaceID string, role types.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := membershipKey{userID, workspaceID}
	member, ok := r.members[key]
	if !ok {
		return store.ErrNotFound
	}
	member.Role = role
	member.UpdatedAt = time.Now()
	r.members[key] = member
	return nil
}

func (r *fakeMembershipRepo) Delete(_ context.Context, userID, workspaceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := membershipKey{userID, workspaceID}
	if _, ok := r.members[key]; !ok {
		return store.ErrNotFound
	}
	delete(r.members, key)
	return nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []types.LoginAudit
	failErr error
}

func (r *fakeAuditRepo) Create(_ context.Context, entry types.LoginAudit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) CountByUser(_ context.Context, userID string) (successes, failures int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range r.entries {
		if entry.UserID == nil || *entry.UserID != userID {
			continue
		}
		if entry.Success {
			successes++
		} else {
			failures++
		}
	}
	return successes, failures, nil
}

func (r *fakeAuditRepo) all() []types.LoginAudit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.LoginAudit(nil), r.entries...)
}

type publishedEvent struct {
	channel string
	data    []byte
	attrs   map[string]string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{channel: channel, data: data, attrs: attrs})
	return "msg-1", nil
}

type fakeWorkspaceRepo struct {
	mu         sync.Mutex
	workspaces map[string]types.Workspace
	owners     map[string]types.PublicUser
}

func newFakeWorkspaceRepo() *fakeWorkspaceRepo {
	return &fakeWorkspaceRepo{
		workspaces: map[string]types.Workspace{},
		owners:     map[string]types.PublicUser{},
	}
}

func (r *fakeWorkspaceRepo) GetByID(_ context.Context, id string) (types.WorkspaceWithOwner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.workspaces[id]
	if !ok {
		return types.WorkspaceWithOwner{}, store.ErrNotFound
	}
	return types.WorkspaceWithOwner{Workspace: ws, Owner: r.owners[ws.OwnerID]}, nil
}

func (r *fakeWorkspaceRepo) GetBySlug(_ context.Context, slug string) (types.WorkspaceWithOwner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ws := range r.workspaces {
		if ws.Slug == slug {
			return types.WorkspaceWithOwner{Workspace: ws, Owner: r.owners[ws.OwnerID]}, nil
		}
	}
	return types.WorkspaceWithOwner{}, store.ErrNotFound
}

func (r *fakeWorkspaceRepo) List(_ context.Context, filter store.WorkspaceFilter) ([]types.WorkspaceWithOwner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	joined := map[string]bool{}
	for _, id := range filter.MemberWorkspaceIDs {
		joined[id] = true
	}
	var result []types.WorkspaceWithOwner
	for _, ws := range r.workspaces {
		if !ws.IsPublic && !joined[ws.ID] {
			continue
		}
		if filter.Joined != nil && *filter.Joined != joined[ws.ID] {
			continue
		}
		if filter.Slug != "" && ws.Slug != filter.Slug {
			continue
		}
		result = append(result, types.WorkspaceWithOwner{Workspace: ws, Owner: r.owners[ws.OwnerID]})
	}
	return result, nil
}

func (r *fakeWorkspaceRepo) Create(_ context.Context, ws types.Workspace) (types.Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.workspaces {
		if existing.Slug == ws.Slug {
			return types.Workspace{}, store.ErrDuplicate
		}
	}
	now := time.Now()
	ws.CreatedAt = now
	ws.UpdatedAt = now
	r.workspaces[ws.ID] = ws
	return ws, nil
}

func (r *fakeWorkspaceRepo) UpdateLogoURL(_ context.Context, id, logoURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.workspaces[id]
	if !ok {
		return store.ErrNotFound
	}
	ws.LogoURL = &logoURL
	r.workspaces[id] = ws
	return nil
}

type fakeInviteRepo struct {
	mu      sync.Mutex
	invites map[string]types.WorkspaceInvite
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{invites: map[string]types.WorkspaceInvite{}}
}

func (r *fakeInviteRepo) Create(_ context.Context, invite types.WorkspaceInvite) (types.WorkspaceInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	invite.CreatedAt = time.Now()
	r.invites[invite.Token] = invite
	return invite, nil
}

func (r *fakeInviteRepo) GetByToken(_ context.Context, token string) (types.WorkspaceInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	invite, ok := r.invites[token]
	if !ok {
		return types.WorkspaceInvite{}, store.ErrNotFound
	}
	return invite, nil
}

func (r *fakeInviteRepo) MarkUsed(_ context.Context, id, usedByID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, invite := range r.invites {
		if invite.ID == id {
			if invite.UsedAt != nil {
				return store.ErrNotFound
			}
			now := time.Now()
			invite.UsedAt = &now
			invite.UsedByID = &usedByID
			r.invites[token] = invite
			return nil
		}
	}
	return store.ErrNotFound
}

type fakeLogoStore struct {
	mu   sync.Mutex
	urls map[string]string
}

func (s *fakeLogoStore) PutLogo(_ context.Context, workspaceID, filename, _ string, r io.Reader, _ int64) (string, error) {
	if s.urls == nil {
		s.urls = map[string]string{}
	}
	_, _ = io.Copy(io.Discard, r)
	url := "/workspace-assets/workspaces/" + workspaceID + "/" + filename
	s.mu.Lock()
	s.urls[workspaceID] = url
	s.mu.Unlock()
	return url, nil
}

type fakeTechnologyRepo struct {
	mu    sync.Mutex
	techs map[string]types.Technology
}

func newFakeTechnologyRepo() *fakeTechnologyRepo {
	return &fakeTechnologyRepo{techs: map[string]types.Technology{}}
}

func (r *fakeTechnologyRepo) ListByWorkspace(_ context.Context, workspaceID string) ([]types.Technology, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []types.Technology
	for _, tech := range r.techs {
		if tech.WorkspaceID == workspaceID {
			result = append(result, tech)
		}
	}
	return result, nil
}

func (r *fakeTechnologyRepo) GetByID(_ context.Context, id string) (types.Technology, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tech, ok := r.techs[id]
	if !ok {
		return types.Technology{}, store.ErrNotFound
	}
	return tech, nil
}

func (r *fakeTechnologyRepo) Create(_ context.Context, tech types.Technology) (types.Technology, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.techs {
		if existing.WorkspaceID == tech.WorkspaceID && existing.Name == tech.Name {
			return types.Technology{}, store.ErrDuplicate
		}
	}
	r.techs[tech.ID] = tech
	return tech, nil
}

func (r *fakeTechnologyRepo) Update(_ context.Context, tech types.Technology) (types.Technology, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.techs[tech.ID]; !ok {
		return types.Technology{}, store.ErrNotFound
	}
	r.techs[tech.ID] = tech
	return tech, nil
}

func (r *fakeTechnologyRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.techs[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.techs, id)
	return nil
}
