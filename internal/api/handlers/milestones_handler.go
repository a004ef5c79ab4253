package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/research-bridge/engine/internal/api/middleware"
	"github.com/research-bridge/engine/internal/api/types"
	"github.com/research-bridge/engine/internal/api/validators"
	"github.com/research-bridge/engine/internal/services"
)

type MilestonesHandler struct {
	svc      services.MilestoneService
	validate interface{ Struct(any) error }
}

func NewMilestonesHandler(svc services.MilestoneService) *MilestonesHandler {
	return &MilestonesHandler{svc: svc, validate: validators.New()}
}

func (h *MilestonesHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID := urlID(r, "projectID")
	if projectID == 0 {
		writeErrorStr(w, http.StatusBadRequest, "invalid project id")
		return
	}
	var req types.MilestoneCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.svc.CreateMilestone(r.Context(), middleware.GetPrincipal(r.Context()), projectID, &services.CreateMilestoneInput{
		Name:        req.Name,
		Description: req.Description,
		DueDate:     parseDueDate(req.DueDate),
		Status:      req.Status,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: m})
}

func (h *MilestonesHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, milestoneID := urlID(r, "projectID"), urlID(r, "milestoneID")
	if projectID == 0 || milestoneID == 0 {
		writeErrorStr(w, http.StatusBadRequest, "invalid id")
		return
	}
	m, err := h.svc.GetMilestone(r.Context(), middleware.GetPrincipal(r.Context()), projectID, milestoneID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: m})
}

// List returns the project's milestones annotated with derived scheduling
// fields. ?status= filters on stored status; ?overdue=true keeps only the
// derived overdue set.
func (h *MilestonesHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID := urlID(r, "projectID")
	if projectID == 0 {
		writeErrorStr(w, http.StatusBadRequest, "invalid project id")
		return
	}
	filter := &services.MilestoneFilter{Overdue: r.URL.Query().Get("overdue") == "true"}
	if st := r.URL.Query().Get("status"); st != "" {
		filter.Status = &st
	}
	items, err := h.svc.ListMilestones(r.Context(), middleware.GetPrincipal(r.Context()), projectID, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{
		Success: true,
		Data:    items,
		Meta:    &types.Meta{Total: int64(len(items))},
	})
}

func (h *MilestonesHandler) Update(w http.ResponseWriter, r *http.Request) {
	projectID, milestoneID := urlID(r, "projectID"), urlID(r, "milestoneID")
	if projectID == 0 || milestoneID == 0 {
		writeErrorStr(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req types.MilestoneUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.svc.UpdateMilestone(r.Context(), middleware.GetPrincipal(r.Context()), projectID, milestoneID, &services.UpdateMilestoneInput{
		Name:        req.Name,
		Description: req.Description,
		DueDate:     parseDueDate(req.DueDate),
		Status:      req.Status,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: m})
}

func (h *MilestonesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, milestoneID := urlID(r, "projectID"), urlID(r, "milestoneID")
	if projectID == 0 || milestoneID == 0 {
		writeErrorStr(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.svc.DeleteMilestone(r.Context(), middleware.GetPrincipal(r.Context()), projectID, milestoneID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true})
}

func (h *MilestonesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	projectID := urlID(r, "projectID")
	if projectID == 0 {
		writeErrorStr(w, http.StatusBadRequest, "invalid project id")
		return
	}
	stats, err := h.svc.GetMilestoneStats(r.Context(), middleware.GetPrincipal(r.Context()), projectID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: stats})
}

// parseDueDate trusts the validator's datetime tag; a nil or malformed value
// comes back nil.
func parseDueDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil
	}
	return &t
}
