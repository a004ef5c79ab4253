package repository

import (
	"context"

	"github.com/research-bridge/engine/internal/models"
	appErr "github.com/research-bridge/engine/pkg/errors"
	"gorm.io/gorm"
)

// ReviewRepository reads the append-only review ledger. Writes happen only
// through ProjectRepository.TransitionStatus so a review row can never exist
// without its status change.
type ReviewRepository interface {
	ListByProject(ctx context.Context, projectID uint) ([]models.ProjectReview, error)
	CountByProject(ctx context.Context, projectID uint) (int64, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) ListByProject(ctx context.Context, projectID uint) ([]models.ProjectReview, error) {
	var out []models.ProjectReview
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("reviewed_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list project reviews failed")
	}
	return out, nil
}

func (r *reviewRepository) CountByProject(ctx context.Context, projectID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.ProjectReview{}).Where("project_id = ?", projectID).Count(&n).Error; err != nil {
		return 0, appErr.Wrap(err, appErr.CodeInternal, "count project reviews failed")
	}
	return n, nil
}
