package repository

import (
	"context"
	"errors"

	"github.com/research-bridge/engine/internal/models"
	appErr "github.com/research-bridge/engine/pkg/errors"
	"gorm.io/gorm"
)

type MilestoneRepository interface {
	BaseRepository[models.Milestone]
	ListByProject(ctx context.Context, projectID uint, status *models.MilestoneStatus) ([]models.Milestone, error)
	// FindForUpdate loads the row inside tx so lifecycle decisions are made
	// against current state, never a pre-transaction read.
	FindForUpdate(tx *gorm.DB, milestoneID uint) (*models.Milestone, error)
	// ApplyUpdates writes the given columns in one statement inside tx,
	// guarded on the status observed in that same transaction. The guard plus
	// the single statement keep status and completed_at in step even when
	// writers race; RowsAffected==0 means a concurrent writer won.
	ApplyUpdates(tx *gorm.DB, milestoneID uint, from models.MilestoneStatus, updates map[string]any) error
}

type milestoneRepository struct {
	BaseRepository[models.Milestone]
	db *gorm.DB
}

func NewMilestoneRepository(db *gorm.DB) MilestoneRepository {
	return &milestoneRepository{BaseRepository: NewBaseRepository[models.Milestone](db), db: db}
}

func (r *milestoneRepository) ListByProject(ctx context.Context, projectID uint, status *models.MilestoneStatus) ([]models.Milestone, error) {
	q := r.db.WithContext(ctx).Where("project_id = ?", projectID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var out []models.Milestone
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list milestones failed")
	}
	return out, nil
}

func (r *milestoneRepository) FindForUpdate(tx *gorm.DB, milestoneID uint) (*models.Milestone, error) {
	var m models.Milestone
	if err := tx.First(&m, "id = ?", milestoneID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.New(appErr.CodeNotFound, "milestone not found")
		}
		return nil, appErr.Wrap(err, appErr.CodeInternal, "load milestone failed")
	}
	return &m, nil
}

func (r *milestoneRepository) ApplyUpdates(tx *gorm.DB, milestoneID uint, from models.MilestoneStatus, updates map[string]any) error {
	res := tx.Model(&models.Milestone{}).
		Where("id = ? AND status = ?", milestoneID, from).
		Updates(updates)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "update milestone failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeConflict, "milestone was modified concurrently")
	}
	return nil
}
