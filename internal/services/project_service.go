package services

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/research-bridge/engine/internal/auth"
	"github.com/research-bridge/engine/internal/models"
	"github.com/research-bridge/engine/internal/repository"
	"github.com/research-bridge/engine/pkg/dates"
	appErr "github.com/research-bridge/engine/pkg/errors"
	"github.com/research-bridge/engine/pkg/logger"
)

// Review actions accepted by ReviewProject.
const (
	ActionApprove        = "approve"
	ActionReject         = "reject"
	ActionRequestChanges = "request_changes"
)

// ProjectService owns the project state machine and the review ledger.
type ProjectService interface {
	CreateProject(ctx context.Context, principal auth.Principal, input *CreateProjectInput) (*models.Project, error)
	GetProject(ctx context.Context, principal auth.Principal, projectID uint) (*models.Project, error)
	ListProjects(ctx context.Context, principal auth.Principal) ([]models.Project, error)
	UpdateProject(ctx context.Context, principal auth.Principal, projectID uint, input *UpdateProjectInput) (*models.Project, error)
	DeleteProject(ctx context.Context, principal auth.Principal, projectID uint) error

	SubmitForReview(ctx context.Context, principal auth.Principal, projectID uint) (*models.Project, error)
	ReviewProject(ctx context.Context, principal auth.Principal, projectID uint, input *ReviewInput) (*models.Project, *models.ProjectReview, error)
	ListReviews(ctx context.Context, principal auth.Principal, projectID uint) ([]models.ProjectReview, error)
}

type CreateProjectInput struct {
	Title           string
	Problem         string
	Outcomes        string
	MethodsRequired string
	Timeline        string
	BudgetMin       *float64
	DataSensitivity *string
}

type UpdateProjectInput struct {
	Title           *string
	Problem         *string
	Outcomes        *string
	MethodsRequired *string
	Timeline        *string
	BudgetMin       *float64
	DataSensitivity *string
	Status          *string
}

type ReviewInput struct {
	Action           string
	Feedback         string
	ChangesRequested string
}

// directEditTargets are the execution statuses a nonprofit may set without
// going through review. The review pipeline statuses are reachable only via
// submit/approve/reject/request_changes so the ledger stays complete.
var directEditTargets = map[models.ProjectStatus]bool{
	models.ProjectOpen:       true,
	models.ProjectInProgress: true,
	models.ProjectCompleted:  true,
	models.ProjectCancelled:  true,
}

// submitSources are the states a project may be submitted for review from.
var submitSources = map[models.ProjectStatus]bool{
	models.ProjectDraft:         true,
	models.ProjectNeedsRevision: true,
}

type projectService struct {
	db          *gorm.DB
	projectRepo repository.ProjectRepository
	reviewRepo  repository.ReviewRepository
	now         dates.NowFunc
}

func NewProjectService(db *gorm.DB, projectRepo repository.ProjectRepository, reviewRepo repository.ReviewRepository, now dates.NowFunc) ProjectService {
	return &projectService{db: db, projectRepo: projectRepo, reviewRepo: reviewRepo, now: now}
}

var _ ProjectService = (*projectService)(nil)

func (s *projectService) CreateProject(ctx context.Context, principal auth.Principal, input *CreateProjectInput) (*models.Project, error) {
	if err := auth.CanCreateProject(principal); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, appErr.New(appErr.CodeInvalid, "project title is required")
	}
	if input.BudgetMin != nil && *input.BudgetMin < 0 {
		return nil, appErr.New(appErr.CodeInvalid, "budget_min must not be negative")
	}
	sensitivity, err := parseSensitivity(input.DataSensitivity)
	if err != nil {
		return nil, err
	}

	p := &models.Project{
		OrganizationID:  *principal.OrganizationID,
		Title:           title,
		Problem:         input.Problem,
		Outcomes:        input.Outcomes,
		MethodsRequired: input.MethodsRequired,
		Timeline:        input.Timeline,
		BudgetMin:       input.BudgetMin,
		DataSensitivity: sensitivity,
		Status:          models.ProjectDraft,
	}
	if err := s.projectRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	logger.L().Info("project created",
		zap.Uint("project_id", p.ID),
		zap.Uint("organization_id", p.OrganizationID),
		zap.Uint("user_id", principal.UserID),
	)
	return p, nil
}

func (s *projectService) GetProject(ctx context.Context, principal auth.Principal, projectID uint) (*models.Project, error) {
	if err := auth.CanRead(principal); err != nil {
		return nil, err
	}
	var p models.Project
	if err := s.projectRepo.GetByID(ctx, projectID, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *projectService) ListProjects(ctx context.Context, principal auth.Principal) ([]models.Project, error) {
	if err := auth.CanRead(principal); err != nil {
		return nil, err
	}
	if principal.Role == models.RoleNonprofit && principal.OrganizationID != nil {
		return s.projectRepo.ListByOrganization(ctx, *principal.OrganizationID)
	}
	return s.projectRepo.ListAll(ctx)
}

func (s *projectService) UpdateProject(ctx context.Context, principal auth.Principal, projectID uint, input *UpdateProjectInput) (*models.Project, error) {
	// Gate, validation, and the guarded write all run inside one transaction
	// against the same snapshot, so a transition committed by another writer
	// cannot be clobbered: the status guard misses and the edit rolls back.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.projectRepo.FindForUpdate(tx, projectID)
		if err != nil {
			return err
		}
		if err := auth.CanMutateProject(principal, p); err != nil {
			return err
		}
		if p.Status == models.ProjectPendingReview {
			return appErr.New(appErr.CodeLocked, "project is locked while under review")
		}

		updates := map[string]any{"updated_at": s.now()}

		if input.Status != nil {
			next := models.ProjectStatus(*input.Status)
			if !next.Valid() {
				return appErr.Newf(appErr.CodeInvalid, "invalid project status %q", *input.Status)
			}
			if !directEditTargets[next] {
				return appErr.Newf(appErr.CodeInvalidTransition, "status %q can only be reached through review", next)
			}
			updates["status"] = next
		}

		if hasFieldEdits(input) {
			if !p.Editable() {
				return appErr.New(appErr.CodeInvalidTransition, "project fields are editable only in draft or needs_revision")
			}
			if input.Title != nil {
				title := strings.TrimSpace(*input.Title)
				if title == "" {
					return appErr.New(appErr.CodeInvalid, "project title must not be empty")
				}
				updates["title"] = title
			}
			if input.Problem != nil {
				updates["problem"] = *input.Problem
			}
			if input.Outcomes != nil {
				updates["outcomes"] = *input.Outcomes
			}
			if input.MethodsRequired != nil {
				updates["methods_required"] = *input.MethodsRequired
			}
			if input.Timeline != nil {
				updates["timeline"] = *input.Timeline
			}
			if input.BudgetMin != nil {
				if *input.BudgetMin < 0 {
					return appErr.New(appErr.CodeInvalid, "budget_min must not be negative")
				}
				updates["budget_min"] = *input.BudgetMin
			}
			if input.DataSensitivity != nil {
				sensitivity, err := parseSensitivity(input.DataSensitivity)
				if err != nil {
					return err
				}
				updates["data_sensitivity"] = *sensitivity
			}
		}

		return s.projectRepo.ApplyUpdates(tx, p.ID, p.Status, updates)
	})
	if err != nil {
		return nil, err
	}

	var updated models.Project
	if err := s.projectRepo.GetByID(ctx, projectID, &updated); err != nil {
		return nil, err
	}

	logger.L().Info("project updated", zap.Uint("project_id", updated.ID), zap.Uint("user_id", principal.UserID))
	return &updated, nil
}

func (s *projectService) DeleteProject(ctx context.Context, principal auth.Principal, projectID uint) error {
	var p models.Project
	if err := s.projectRepo.GetByID(ctx, projectID, &p); err != nil {
		return err
	}

	if !auth.IsAdmin(principal) {
		if err := auth.CanMutateProject(principal, &p); err != nil {
			return err
		}
		if p.Status == models.ProjectPendingReview {
			return appErr.New(appErr.CodeLocked, "project cannot be deleted while under review")
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.projectRepo.DeleteCascade(tx, projectID)
	})
	if err != nil {
		return err
	}

	logger.L().Info("project deleted",
		zap.Uint("project_id", projectID),
		zap.Uint("user_id", principal.UserID),
		zap.Bool("privileged", auth.IsAdmin(principal)),
	)
	return nil
}

func (s *projectService) SubmitForReview(ctx context.Context, principal auth.Principal, projectID uint) (*models.Project, error) {
	var p models.Project
	if err := s.projectRepo.GetByID(ctx, projectID, &p); err != nil {
		return nil, err
	}
	if err := auth.CanMutateProject(principal, &p); err != nil {
		return nil, err
	}
	if !submitSources[p.Status] {
		return nil, appErr.Newf(appErr.CodeInvalidTransition, "cannot submit project from status %q", p.Status)
	}

	reviewerID := principal.UserID
	review := &models.ProjectReview{
		ProjectID:      p.ID,
		ReviewerID:     &reviewerID,
		Action:         models.ReviewSubmitted,
		PreviousStatus: p.Status,
		NewStatus:      models.ProjectPendingReview,
		ReviewedAt:     s.now(),
	}

	prev := p.Status
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.projectRepo.TransitionStatus(tx, p.ID, prev, models.ProjectPendingReview, review)
	})
	if err != nil {
		return nil, err
	}
	p.Status = models.ProjectPendingReview

	logger.L().Info("project submitted for review",
		zap.Uint("project_id", p.ID),
		zap.String("previous_status", string(prev)),
		zap.Uint("user_id", principal.UserID),
	)
	return &p, nil
}

func (s *projectService) ReviewProject(ctx context.Context, principal auth.Principal, projectID uint, input *ReviewInput) (*models.Project, *models.ProjectReview, error) {
	if err := auth.CanReview(principal); err != nil {
		return nil, nil, err
	}
	var p models.Project
	if err := s.projectRepo.GetByID(ctx, projectID, &p); err != nil {
		return nil, nil, err
	}

	var (
		storedAction models.ReviewAction
		next         models.ProjectStatus
	)
	switch input.Action {
	case ActionApprove:
		storedAction, next = models.ReviewApproved, models.ProjectApproved
	case ActionReject:
		if strings.TrimSpace(input.Feedback) == "" {
			return nil, nil, appErr.New(appErr.CodeInvalid, "a rejection reason is required")
		}
		storedAction, next = models.ReviewRejected, models.ProjectRejected
	case ActionRequestChanges:
		if strings.TrimSpace(input.ChangesRequested) == "" {
			return nil, nil, appErr.New(appErr.CodeInvalid, "changes_requested is required")
		}
		storedAction, next = models.ReviewNeedsRevision, models.ProjectNeedsRevision
	default:
		return nil, nil, appErr.Newf(appErr.CodeInvalid, "unknown review action %q", input.Action)
	}

	if p.Status != models.ProjectPendingReview {
		return nil, nil, appErr.Newf(appErr.CodeInvalidTransition, "cannot %s project in status %q", input.Action, p.Status)
	}

	reviewerID := principal.UserID
	review := &models.ProjectReview{
		ProjectID:        p.ID,
		ReviewerID:       &reviewerID,
		Action:           storedAction,
		PreviousStatus:   models.ProjectPendingReview,
		NewStatus:        next,
		Feedback:         input.Feedback,
		ChangesRequested: input.ChangesRequested,
		ReviewedAt:       s.now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.projectRepo.TransitionStatus(tx, p.ID, models.ProjectPendingReview, next, review)
	})
	if err != nil {
		return nil, nil, err
	}
	p.Status = next

	logger.L().Info("project reviewed",
		zap.Uint("project_id", p.ID),
		zap.String("action", input.Action),
		zap.String("new_status", string(next)),
		zap.Uint("reviewer_id", principal.UserID),
	)
	return &p, review, nil
}

func (s *projectService) ListReviews(ctx context.Context, principal auth.Principal, projectID uint) ([]models.ProjectReview, error) {
	if err := auth.CanRead(principal); err != nil {
		return nil, err
	}
	var p models.Project
	if err := s.projectRepo.GetByID(ctx, projectID, &p); err != nil {
		return nil, err
	}
	return s.reviewRepo.ListByProject(ctx, projectID)
}

func hasFieldEdits(input *UpdateProjectInput) bool {
	return input.Title != nil ||
		input.Problem != nil ||
		input.Outcomes != nil ||
		input.MethodsRequired != nil ||
		input.Timeline != nil ||
		input.BudgetMin != nil ||
		input.DataSensitivity != nil
}

func parseSensitivity(s *string) (*models.DataSensitivity, error) {
	if s == nil {
		return nil, nil
	}
	d := models.DataSensitivity(*s)
	if !d.Valid() {
		return nil, appErr.Newf(appErr.CodeInvalid, "invalid data sensitivity %q", *s)
	}
	return &d, nil
}
