package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/techradar/apiserver/internal/services"
)

// InviteHandler resolves and redeems workspace invite links.
type InviteHandler struct {
	workspaceService *services.WorkspaceService
}

func NewInviteHandler(workspaceService *services.WorkspaceService) *InviteHandler {
	return &InviteHandler{workspaceService: workspaceService}
}

// InviteRouter registers invite routes. Resolving an invite is open so
// the landing page can render before login; accepting requires auth.
func InviteRouter(r chi.Router, workspaceService *services.WorkspaceService) {
	handler := NewInviteHandler(workspaceService)

	r.Get("/{token}", handler.Get)
	r.With(RequireAuth).Post("/{token}", handler.Accept)
}

// Get returns the workspace behind a pending invite token.
func (h *InviteHandler) Get(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	detail, err := h.workspaceService.GetInvite(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Accept redeems the invite for the caller, enrolling them as customer.
func (h *InviteHandler) Accept(w http.ResponseWriter, r *http.Request) {
	authCtx := authContextFrom(r)
	token := chi.URLParam(r, "token")

	member, err := h.workspaceService.AcceptInvite(r.Context(), authCtx.User.ID, token)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}
