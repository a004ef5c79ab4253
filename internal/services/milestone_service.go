package services

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/research-bridge/engine/internal/auth"
	"github.com/research-bridge/engine/internal/models"
	"github.com/research-bridge/engine/internal/repository"
	"github.com/research-bridge/engine/internal/schedule"
	"github.com/research-bridge/engine/pkg/dates"
	appErr "github.com/research-bridge/engine/pkg/errors"
	"github.com/research-bridge/engine/pkg/logger"
)

// MilestoneService owns the milestone lifecycle, the derived read models, and
// the per-project statistics.
type MilestoneService interface {
	CreateMilestone(ctx context.Context, principal auth.Principal, projectID uint, input *CreateMilestoneInput) (*models.Milestone, error)
	GetMilestone(ctx context.Context, principal auth.Principal, projectID, milestoneID uint) (*schedule.Annotated, error)
	UpdateMilestone(ctx context.Context, principal auth.Principal, projectID, milestoneID uint, input *UpdateMilestoneInput) (*models.Milestone, error)
	DeleteMilestone(ctx context.Context, principal auth.Principal, projectID, milestoneID uint) error
	ListMilestones(ctx context.Context, principal auth.Principal, projectID uint, filter *MilestoneFilter) ([]schedule.Annotated, error)
	GetMilestoneStats(ctx context.Context, principal auth.Principal, projectID uint) (*MilestoneStats, error)
}

type CreateMilestoneInput struct {
	Name        string
	Description string
	DueDate     *time.Time
	Status      *string
}

type UpdateMilestoneInput struct {
	Name        *string
	Description *string
	DueDate     *time.Time
	Status      *string
}

type MilestoneFilter struct {
	Status  *string
	Overdue bool
}

// MilestoneStats aggregates the current milestone set of one project. The
// per-status counts bucket stored statuses; overdue is derived at read time.
type MilestoneStats struct {
	Total          int `json:"total"`
	Pending        int `json:"pending"`
	InProgress     int `json:"in_progress"`
	Completed      int `json:"completed"`
	Cancelled      int `json:"cancelled"`
	Overdue        int `json:"overdue"`
	CompletionRate int `json:"completion_rate"`
}

type milestoneService struct {
	db            *gorm.DB
	projectRepo   repository.ProjectRepository
	milestoneRepo repository.MilestoneRepository
	now           dates.NowFunc
}

func NewMilestoneService(db *gorm.DB, projectRepo repository.ProjectRepository, milestoneRepo repository.MilestoneRepository, now dates.NowFunc) MilestoneService {
	return &milestoneService{db: db, projectRepo: projectRepo, milestoneRepo: milestoneRepo, now: now}
}

var _ MilestoneService = (*milestoneService)(nil)

func (s *milestoneService) CreateMilestone(ctx context.Context, principal auth.Principal, projectID uint, input *CreateMilestoneInput) (*models.Milestone, error) {
	p, err := s.loadOwnedProject(ctx, principal, projectID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, appErr.New(appErr.CodeInvalid, "milestone name is required")
	}

	now := s.now()
	var due *time.Time
	if input.DueDate != nil {
		if dates.BeforeDay(*input.DueDate, now) {
			return nil, appErr.New(appErr.CodeInvalid, "due date must be today or later")
		}
		d := dates.StartOfDayUTC(*input.DueDate)
		due = &d
	}

	status := models.MilestonePending
	if input.Status != nil {
		status = models.MilestoneStatus(*input.Status)
		if !status.Valid() {
			return nil, appErr.Newf(appErr.CodeInvalid, "invalid milestone status %q", *input.Status)
		}
	}

	m := &models.Milestone{
		ProjectID:   p.ID,
		Name:        name,
		Description: input.Description,
		DueDate:     due,
		Status:      status,
	}
	if status == models.MilestoneCompleted {
		m.CompletedAt = &now
	}

	if err := s.milestoneRepo.Create(ctx, m); err != nil {
		return nil, err
	}

	logger.L().Info("milestone created",
		zap.Uint("milestone_id", m.ID),
		zap.Uint("project_id", p.ID),
		zap.Uint("user_id", principal.UserID),
	)
	return m, nil
}

func (s *milestoneService) GetMilestone(ctx context.Context, principal auth.Principal, projectID, milestoneID uint) (*schedule.Annotated, error) {
	if err := auth.CanRead(principal); err != nil {
		return nil, err
	}
	m, err := s.loadMilestone(ctx, projectID, milestoneID)
	if err != nil {
		return nil, err
	}
	a := schedule.Annotate(*m, s.now())
	return &a, nil
}

func (s *milestoneService) UpdateMilestone(ctx context.Context, principal auth.Principal, projectID, milestoneID uint, input *UpdateMilestoneInput) (*models.Milestone, error) {
	if _, err := s.loadOwnedProject(ctx, principal, projectID); err != nil {
		return nil, err
	}

	// Input validation that does not depend on row state.
	var name *string
	if input.Name != nil {
		n := strings.TrimSpace(*input.Name)
		if n == "" {
			return nil, appErr.New(appErr.CodeInvalid, "milestone name must not be empty")
		}
		name = &n
	}
	var next *models.MilestoneStatus
	if input.Status != nil {
		st := models.MilestoneStatus(*input.Status)
		if !st.Valid() {
			return nil, appErr.Newf(appErr.CodeInvalid, "invalid milestone status %q", *input.Status)
		}
		next = &st
	}

	now := s.now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The completed_at decision is made against the row as it exists in
		// this transaction, never a pre-transaction read, and the guarded
		// update rejects any writer that slipped in after it.
		m, err := s.milestoneRepo.FindForUpdate(tx, milestoneID)
		if err != nil {
			return err
		}
		if m.ProjectID != projectID {
			return appErr.New(appErr.CodeNotFound, "milestone not found")
		}

		updates := map[string]any{"updated_at": now}
		if name != nil {
			updates["name"] = *name
		}
		if input.Description != nil {
			updates["description"] = *input.Description
		}
		if input.DueDate != nil {
			// Past dates are allowed on edits; only creation enforces today-or-later.
			updates["due_date"] = dates.StartOfDayUTC(*input.DueDate)
		}
		if next != nil {
			updates["status"] = *next
			// completed_at rides in the same statement as the status change.
			if *next == models.MilestoneCompleted && m.CompletedAt == nil {
				updates["completed_at"] = now
			}
			if *next != models.MilestoneCompleted && m.CompletedAt != nil {
				updates["completed_at"] = nil
			}
		}

		return s.milestoneRepo.ApplyUpdates(tx, m.ID, m.Status, updates)
	})
	if err != nil {
		return nil, err
	}

	var updated models.Milestone
	if err := s.milestoneRepo.GetByID(ctx, milestoneID, &updated); err != nil {
		return nil, err
	}

	logger.L().Info("milestone updated",
		zap.Uint("milestone_id", milestoneID),
		zap.Uint("project_id", projectID),
		zap.Uint("user_id", principal.UserID),
	)
	return &updated, nil
}

func (s *milestoneService) DeleteMilestone(ctx context.Context, principal auth.Principal, projectID, milestoneID uint) error {
	if _, err := s.loadOwnedProject(ctx, principal, projectID); err != nil {
		return err
	}
	m, err := s.loadMilestone(ctx, projectID, milestoneID)
	if err != nil {
		return err
	}
	if err := s.milestoneRepo.Delete(ctx, m.ID); err != nil {
		return err
	}

	logger.L().Info("milestone deleted",
		zap.Uint("milestone_id", m.ID),
		zap.Uint("project_id", projectID),
		zap.Uint("user_id", principal.UserID),
	)
	return nil
}

func (s *milestoneService) ListMilestones(ctx context.Context, principal auth.Principal, projectID uint, filter *MilestoneFilter) ([]schedule.Annotated, error) {
	if err := auth.CanRead(principal); err != nil {
		return nil, err
	}
	var p models.Project
	if err := s.projectRepo.GetByID(ctx, projectID, &p); err != nil {
		return nil, err
	}

	var status *models.MilestoneStatus
	overdueOnly := false
	if filter != nil {
		if filter.Status != nil {
			st := models.MilestoneStatus(*filter.Status)
			if !st.Valid() {
				return nil, appErr.Newf(appErr.CodeInvalid, "invalid milestone status %q", *filter.Status)
			}
			status = &st
		}
		overdueOnly = filter.Overdue
	}

	ms, err := s.milestoneRepo.ListByProject(ctx, projectID, status)
	if err != nil {
		return nil, err
	}

	now := s.now()
	annotated := schedule.AnnotateAll(ms, now)
	if !overdueOnly {
		return annotated, nil
	}
	out := annotated[:0]
	for _, a := range annotated {
		if a.IsOverdue {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *milestoneService) GetMilestoneStats(ctx context.Context, principal auth.Principal, projectID uint) (*MilestoneStats, error) {
	if err := auth.CanRead(principal); err != nil {
		return nil, err
	}
	var p models.Project
	if err := s.projectRepo.GetByID(ctx, projectID, &p); err != nil {
		return nil, err
	}

	ms, err := s.milestoneRepo.ListByProject(ctx, projectID, nil)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stats := &MilestoneStats{Total: len(ms)}
	for _, m := range ms {
		switch m.Status {
		case models.MilestonePending:
			stats.Pending++
		case models.MilestoneInProgress:
			stats.InProgress++
		case models.MilestoneCompleted:
			stats.Completed++
		case models.MilestoneCancelled:
			stats.Cancelled++
		}
		if schedule.IsOverdue(m, now) {
			stats.Overdue++
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = int(math.Round(100 * float64(stats.Completed) / float64(stats.Total)))
	}
	return stats, nil
}

func (s *milestoneService) loadOwnedProject(ctx context.Context, principal auth.Principal, projectID uint) (*models.Project, error) {
	var p models.Project
	if err := s.projectRepo.GetByID(ctx, projectID, &p); err != nil {
		return nil, err
	}
	if err := auth.CanMutateProject(principal, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *milestoneService) loadMilestone(ctx context.Context, projectID, milestoneID uint) (*models.Milestone, error) {
	var m models.Milestone
	if err := s.milestoneRepo.GetByID(ctx, milestoneID, &m); err != nil {
		return nil, err
	}
	if m.ProjectID != projectID {
		return nil, appErr.New(appErr.CodeNotFound, "milestone not found")
	}
	return &m, nil
}
