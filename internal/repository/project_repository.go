package repository

import (
	"context"
	"errors"

	"github.com/research-bridge/engine/internal/models"
	appErr "github.com/research-bridge/engine/pkg/errors"
	"gorm.io/gorm"
)

type ProjectRepository interface {
	BaseRepository[models.Project]
	ListByOrganization(ctx context.Context, orgID uint) ([]models.Project, error)
	ListAll(ctx context.Context) ([]models.Project, error)
	// FindForUpdate loads the row inside tx so gates and guarded writes work
	// from the same snapshot.
	FindForUpdate(tx *gorm.DB, projectID uint) (*models.Project, error)
	// ApplyUpdates writes the given columns guarded on the status observed in
	// the same transaction. RowsAffected==0 means a concurrent transition won
	// and the caller must roll back.
	ApplyUpdates(tx *gorm.DB, projectID uint, from models.ProjectStatus, updates map[string]any) error
	// TransitionStatus performs the check-and-set for a status transition and
	// writes the audit row inside tx. RowsAffected==0 on the guarded update
	// means another writer got there first; the caller maps that to an
	// invalid-transition error and the transaction rolls back.
	TransitionStatus(tx *gorm.DB, projectID uint, from, to models.ProjectStatus, review *models.ProjectReview) error
	// DeleteCascade removes the project with its milestones and reviews in tx.
	DeleteCascade(tx *gorm.DB, projectID uint) error
}

type projectRepository struct {
	BaseRepository[models.Project]
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{BaseRepository: NewBaseRepository[models.Project](db), db: db}
}

func (r *projectRepository) ListByOrganization(ctx context.Context, orgID uint) ([]models.Project, error) {
	var out []models.Project
	if err := r.db.WithContext(ctx).Where("organization_id = ?", orgID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list projects by organization failed")
	}
	return out, nil
}

func (r *projectRepository) ListAll(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list projects failed")
	}
	return out, nil
}

func (r *projectRepository) FindForUpdate(tx *gorm.DB, projectID uint) (*models.Project, error) {
	var p models.Project
	if err := tx.First(&p, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.New(appErr.CodeNotFound, "project not found")
		}
		return nil, appErr.Wrap(err, appErr.CodeInternal, "load project failed")
	}
	return &p, nil
}

func (r *projectRepository) ApplyUpdates(tx *gorm.DB, projectID uint, from models.ProjectStatus, updates map[string]any) error {
	res := tx.Model(&models.Project{}).
		Where("id = ? AND status = ?", projectID, from).
		Updates(updates)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "update project failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeConflict, "project was modified concurrently")
	}
	return nil
}

func (r *projectRepository) TransitionStatus(tx *gorm.DB, projectID uint, from, to models.ProjectStatus, review *models.ProjectReview) error {
	res := tx.Model(&models.Project{}).
		Where("id = ? AND status = ?", projectID, from).
		Update("status", to)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "update project status failed")
	}
	if res.RowsAffected == 0 {
		// The row moved out from under us between read and write.
		return appErr.Newf(appErr.CodeInvalidTransition, "project is no longer in status %q", from)
	}
	if err := tx.Create(review).Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "write review audit row failed")
	}
	return nil
}

func (r *projectRepository) DeleteCascade(tx *gorm.DB, projectID uint) error {
	if err := tx.Where("project_id = ?", projectID).Delete(&models.Milestone{}).Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "delete project milestones failed")
	}
	if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectReview{}).Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "delete project reviews failed")
	}
	res := tx.Delete(&models.Project{}, "id = ?", projectID)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "delete project failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, "project not found")
	}
	return nil
}
