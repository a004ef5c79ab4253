package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/research-bridge/engine/internal/api/middleware"
	"github.com/research-bridge/engine/internal/api/types"
	"github.com/research-bridge/engine/internal/api/validators"
	"github.com/research-bridge/engine/internal/services"
)

type ProjectsHandler struct {
	svc      services.ProjectService
	validate interface{ Struct(any) error }
}

func NewProjectsHandler(svc services.ProjectService) *ProjectsHandler {
	return &ProjectsHandler{svc: svc, validate: validators.New()}
}

func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.ProjectCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.svc.CreateProject(r.Context(), middleware.GetPrincipal(r.Context()), &services.CreateProjectInput{
		Title:           req.Title,
		Problem:         req.Problem,
		Outcomes:        req.Outcomes,
		MethodsRequired: req.MethodsRequired,
		Timeline:        req.Timeline,
		BudgetMin:       req.BudgetMin,
		DataSensitivity: req.DataSensitivity,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: p})
}

func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "projectID")
	if id == 0 {
		writeErrorStr(w, http.StatusBadRequest, "invalid project id")
		return
	}
	p, err := h.svc.GetProject(r.Context(), middleware.GetPrincipal(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: p})
}

func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListProjects(r.Context(), middleware.GetPrincipal(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{
		Success: true,
		Data:    items,
		Meta:    &types.Meta{RequestID: middleware.GetRequestID(r.Context()), Total: int64(len(items))},
	})
}

func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "projectID")
	if id == 0 {
		writeErrorStr(w, http.StatusBadRequest, "invalid project id")
		return
	}
	var req types.ProjectUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.svc.UpdateProject(r.Context(), middleware.GetPrincipal(r.Context()), id, &services.UpdateProjectInput{
		Title:           req.Title,
		Problem:         req.Problem,
		Outcomes:        req.Outcomes,
		MethodsRequired: req.MethodsRequired,
		Timeline:        req.Timeline,
		BudgetMin:       req.BudgetMin,
		DataSensitivity: req.DataSensitivity,
		Status:          req.Status,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: p})
}

func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "projectID")
	if id == 0 {
		writeErrorStr(w, http.StatusBadRequest, "invalid project id")
		return
	}
	if err := h.svc.DeleteProject(r.Context(), middleware.GetPrincipal(r.Context()), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true})
}

// Submit moves a draft or needs_revision project into the review queue.
func (h *ProjectsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "projectID")
	if id == 0 {
		writeErrorStr(w, http.StatusBadRequest, "invalid project id")
		return
	}
	p, err := h.svc.SubmitForReview(r.Context(), middleware.GetPrincipal(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: p})
}

// Review records an admin decision: approve, reject, or request_changes.
func (h *ProjectsHandler) Review(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "projectID")
	if id == 0 {
		writeErrorStr(w, http.StatusBadRequest, "invalid project id")
		return
	}
	var req types.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, err.Error())
		return
	}
	p, review, err := h.svc.ReviewProject(r.Context(), middleware.GetPrincipal(r.Context()), id, &services.ReviewInput{
		Action:           req.Action,
		Feedback:         req.Feedback,
		ChangesRequested: req.ChangesRequested,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: map[string]any{
		"project": p,
		"review":  review,
	}})
}

func (h *ProjectsHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "projectID")
	if id == 0 {
		writeErrorStr(w, http.StatusBadRequest, "invalid project id")
		return
	}
	reviews, err := h.svc.ListReviews(r.Context(), middleware.GetPrincipal(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{
		Success: true,
		Data:    reviews,
		Meta:    &types.Meta{Total: int64(len(reviews))},
	})
}
