package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/techradar/apiserver/internal/services"
	"github.com/techradar/apiserver/types"
)

// TechnologyHandler provides CRUD over a workspace's radar entries.
type TechnologyHandler struct {
	technologyService *services.TechnologyService
}

func NewTechnologyHandler(technologyService *services.TechnologyService) *TechnologyHandler {
	return &TechnologyHandler{technologyService: technologyService}
}

// TechnologyRouter registers technology routes. Reads are open to any
// workspace member; writes are gated on the cto or tech-lead role.
func TechnologyRouter(r chi.Router, technologyService *services.TechnologyService) {
	handler := NewTechnologyHandler(technologyService)

	r.Get("/", handler.List)
	r.Post("/", handler.Create)
	r.Put("/{technologyID}", handler.Update)
	r.Delete("/{technologyID}", handler.Delete)
}

func (h *TechnologyHandler) List(w http.ResponseWriter, r *http.Request) {
	authCtx := authContextFrom(r)
	workspaceID, ok := workspaceIDParam(w, r)
	if !ok {
		return
	}

	if _, err := services.RequireMembership(authCtx, workspaceID); err != nil {
		writeServiceError(w, err)
		return
	}

	technologies, err := h.technologyService.List(r.Context(), workspaceID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, technologies)
}

func (h *TechnologyHandler) Create(w http.ResponseWriter, r *http.Request) {
	authCtx := authContextFrom(r)
	workspaceID, ok := workspaceIDParam(w, r)
	if !ok {
		return
	}

	if _, err := services.RequireAnyRole(authCtx, workspaceID, types.RoleCTO, types.RoleTechLead); err != nil {
		writeServiceError(w, err)
		return
	}

	input, ok := decodeTechnologyInput(w, r)
	if !ok {
		return
	}

	tech, err := h.technologyService.Create(r.Context(), workspaceID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tech)
}

func (h *TechnologyHandler) Update(w http.ResponseWriter, r *http.Request) {
	authCtx := authContextFrom(r)
	workspaceID, ok := workspaceIDParam(w, r)
	if !ok {
		return
	}
	technologyID, ok := uuidParam(w, r, "technologyID")
	if !ok {
		return
	}

	if _, err := services.RequireAnyRole(authCtx, workspaceID, types.RoleCTO, types.RoleTechLead); err != nil {
		writeServiceError(w, err)
		return
	}

	input, ok := decodeTechnologyInput(w, r)
	if !ok {
		return
	}

	tech, err := h.technologyService.Update(r.Context(), workspaceID, technologyID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tech)
}

func (h *TechnologyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	authCtx := authContextFrom(r)
	workspaceID, ok := workspaceIDParam(w, r)
	if !ok {
		return
	}
	technologyID, ok := uuidParam(w, r, "technologyID")
	if !ok {
		return
	}

	if _, err := services.RequireAnyRole(authCtx, workspaceID, types.RoleCTO, types.RoleTechLead); err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.technologyService.Delete(r.Context(), workspaceID, technologyID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "successfully deleted technology"})
}

func decodeTechnologyInput(w http.ResponseWriter, r *http.Request) (services.TechnologyInput, bool) {
	var req TechnologyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return services.TechnologyInput{}, false
	}

	status := req.Status
	if status == "" {
		status = types.StatusDraft
	}
	return services.TechnologyInput{
		Name:            strings.TrimSpace(req.Name),
		LogoURL:         req.LogoURL,
		Category:        req.Category,
		Description:     strings.TrimSpace(req.Description),
		Ring:            req.Ring,
		RingDescription: req.RingDescription,
		Status:          status,
	}, true
}

type TechnologyRequest struct {
	Name            string                    `json:"name"`
	LogoURL         *string                   `json:"logo_url"`
	Category        types.TechnologyCategory  `json:"category"`
	Description     string                    `json:"description"`
	Ring            *types.TechnologyRing     `json:"ring"`
	RingDescription *string                   `json:"ring_description"`
	Status          types.TechnologyStatus    `json:"status"`
}
