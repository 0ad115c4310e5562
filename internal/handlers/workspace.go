package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/techradar/apiserver/internal/services"
	"github.com/techradar/apiserver/types"
)

const (
	maxLogoMemory = 8 << 20
	maxLogoBytes  = 4 << 20

	formFieldLogo = "logo"
)

// WorkspaceHandler provides workspace lifecycle and membership endpoints.
type WorkspaceHandler struct {
	workspaceService *services.WorkspaceService
}

// NewWorkspaceHandler constructs a handler with the provided service.
func NewWorkspaceHandler(workspaceService *services.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{workspaceService: workspaceService}
}

// WorkspaceRouter registers workspace routes on the given router. All
// routes require an authenticated caller; finer role gates are applied
// per handler.
func WorkspaceRouter(r chi.Router, workspaceService *services.WorkspaceService, technologyService *services.TechnologyService) {
	handler := NewWorkspaceHandler(workspaceService)

	r.Use(RequireAuth)
	r.Post("/", handler.Create)
	r.Get("/", handler.List)
	r.Route("/{workspaceID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.Post("/join", handler.Join)
		r.Post("/leave", handler.Leave)
		r.Get("/members", handler.ListMembers)
		r.Patch("/members/{userID}", handler.ChangeMemberRole)
		r.Delete("/members/{userID}", handler.RemoveMember)
		r.Post("/invite", handler.CreateInvite)
		r.Post("/logo", handler.UploadLogo)
		r.Route("/technologies", func(r chi.Router) {
			TechnologyRouter(r, technologyService)
		})
	})
}

// Create makes a new workspace owned by the caller, who joins as admin.
func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	authCtx := authContextFrom(r)

	var req CreateWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	ws, err := h.workspaceService.Create(r.Context(), authCtx.User.ID, services.CreateWorkspaceInput{
		Name:        strings.TrimSpace(req.Name),
		Slug:        strings.TrimSpace(req.Slug),
		Description: strings.TrimSpace(req.Description),
		LogoURL:     req.LogoURL,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ws)
}

// List returns the workspaces visible to the caller.
func (h *WorkspaceHandler) List(w http.ResponseWriter, r *http.Request) {
	authCtx := authContextFrom(r)

	filter, err := parseWorkspaceFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.workspaceService.List(r.Context(), authCtx, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Get returns a single workspace.
func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	authCtx := authContextFrom(r)
	workspaceID, ok := workspaceIDParam(w, r)
	if !ok {
		return
	}

	ws, err := h.workspaceService.Get(r.Context(), authCtx, workspaceID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

// Join enrolls the caller in a public workspace as customer.
func (h *WorkspaceHandler) Join(w http.ResponseWriter, r *http.Request) {
	authCtx := authContextFrom(r)
	workspaceID, ok := workspaceIDParam(w, r)
	if !ok {
		return
	}

	if err := h.workspaceService.Join(r.Context(), authCtx.User.ID, workspaceID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "successfully joined workspace"})
}

// Leave removes the caller's membership.
func (h *WorkspaceHandler) Leave(w http.ResponseWriter, r *http.Request) {
	authCtx := authContextFrom(r)
	workspaceID, ok := workspaceIDParam(w, r)
	if !ok {
		return
	}

	if err := h.workspaceService.Leave(r.Context(), authCtx.User.ID, workspaceID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "successfully left workspace"})
}

// ListMembers is open to any member of the workspace.
func (h *WorkspaceHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	authCtx := authContextFrom(r)
	workspaceID, ok := workspaceIDParam(w, r)
	if !ok {
		return
	}

	if _, err := services.RequireMembership(authCtx, workspaceID); err != nil {
		writeServiceError(w, err)
		return
	}

	members, err := h.workspaceService.Members(r.Context(), workspaceID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// ChangeMemberRole is gated on the cto role.
func (h *WorkspaceHandler) ChangeMemberRole(w http.ResponseWriter, r *http.Request) {
	authCtx := authContextFrom(r)
	workspaceID, ok := workspaceIDParam(w, r)
	if !ok {
		return
	}
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}

	if _, err := services.RequireRole(authCtx, workspaceID, types.RoleCTO); err != nil {
		writeServiceError(w, err)
		return
	}

	var req ChangeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := h.workspaceService.ChangeMemberRole(r.Context(), authCtx.User.ID, workspaceID, userID, req.Role); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MemberRoleResponse{UserID: userID, Role: req.Role})
}

// RemoveMember is gated on the cto role.
func (h *WorkspaceHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	authCtx := authContextFrom(r)
	workspaceID, ok := workspaceIDParam(w, r)
	if !ok {
		return
	}
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}

	if _, err := services.RequireRole(authCtx, workspaceID, types.RoleCTO); err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.workspaceService.RemoveMember(r.Context(), authCtx.User.ID, workspaceID, userID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "successfully removed member"})
}

// CreateInvite is gated on the admin or cto role.
func (h *WorkspaceHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	authCtx := authContextFrom(r)
	workspaceID, ok := workspaceIDParam(w, r)
	if !ok {
		return
	}

	if _, err := services.RequireAnyRole(authCtx, workspaceID, types.RoleAdmin, types.RoleCTO); err != nil {
		writeServiceError(w, err)
		return
	}

	var req CreateInviteRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
	}

	invite, err := h.workspaceService.CreateInvite(r.Context(), authCtx.User.ID, workspaceID, req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, invite)
}

// UploadLogo is gated on the admin or cto role. The image lands in
// object storage and the workspace logo URL is updated.
func (h *WorkspaceHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	authCtx := authContextFrom(r)
	workspaceID, ok := workspaceIDParam(w, r)
	if !ok {
		return
	}

	if _, err := services.RequireAnyRole(authCtx, workspaceID, types.RoleAdmin, types.RoleCTO); err != nil {
		writeServiceError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxLogoMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile(formFieldLogo)
	if err != nil {
		writeError(w, http.StatusBadRequest, "logo file is required")
		return
	}
	defer file.Close()

	if header.Size > maxLogoBytes {
		writeError(w, http.StatusBadRequest, "logo exceeds maximum size")
		return
	}

	contentType := header.Header.Get("Content-Type")
	logoURL, err := h.workspaceService.UploadLogo(r.Context(), workspaceID, header.Filename, contentType, file, header.Size)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LogoResponse{LogoURL: logoURL})
}

func parseWorkspaceFilter(r *http.Request) (services.ListWorkspacesFilter, error) {
	query := r.URL.Query()
	filter := services.ListWorkspacesFilter{
		Slug:   query.Get("slug"),
		Search: query.Get("search"),
	}

	if raw := query.Get("joined"); raw != "" {
		joined := raw == "true"
		filter.Joined = &joined
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return services.ListWorkspacesFilter{}, errInvalidQuery("limit")
		}
		filter.Limit = limit
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return services.ListWorkspacesFilter{}, errInvalidQuery("offset")
		}
		filter.Offset = offset
	}
	return filter, nil
}

func workspaceIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	return uuidParam(w, r, "workspaceID")
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	raw := chi.URLParam(r, name)
	if _, err := uuid.Parse(raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return "", false
	}
	return raw, true
}

type CreateWorkspaceRequest struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	LogoURL     *string `json:"logo_url"`
	IsPublic    bool    `json:"is_public"`
}

type ChangeRoleRequest struct {
	Role types.Role `json:"role"`
}

type CreateInviteRequest struct {
	Email *string `json:"email"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type MemberRoleResponse struct {
	UserID string     `json:"user_id"`
	Role   types.Role `json:"role"`
}

type LogoResponse struct {
	LogoURL string `json:"logo_url"`
}
