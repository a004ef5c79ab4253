package main

import (
	"gorm.io/gorm"

	"github.com/research-bridge/engine/internal/models"
)

// registerModels returns all models that need migration. Order matters:
// referenced tables first.
func registerModels() []interface{} {
	return []interface{}{
		&models.Organization{},
		&models.User{},

		&models.Project{},
		&models.ProjectReview{},
		&models.Milestone{},
	}
}

// runMigrations executes all database migrations
func runMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(registerModels()...); err != nil {
		return err
	}
	return runCustomMigrations(db)
}

// runCustomMigrations handles schema changes AutoMigrate can't handle
func runCustomMigrations(db *gorm.DB) error {
	migrations := []func(*gorm.DB) error{
		addProjectIndexes,
		addMilestoneIndexes,
		addReviewIndexes,
	}

	for _, migration := range migrations {
		if err := migration(db); err != nil {
			return err
		}
	}
	return nil
}

// addProjectIndexes supports the org-scoped list and the review queue.
func addProjectIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_projects_org_status
		ON projects(organization_id, status)
	`).Error; err != nil {
		return err
	}
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_projects_status
		ON projects(status)
	`).Error
}

// addMilestoneIndexes supports per-project listing and due-date scans.
func addMilestoneIndexes(db *gorm.DB) error {
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_milestones_project_due
		ON milestones(project_id, due_date)
	`).Error
}

// addReviewIndexes supports the newest-first ledger read.
func addReviewIndexes(db *gorm.DB) error {
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_project_reviews_project_reviewed
		ON project_reviews(project_id, reviewed_at DESC)
	`).Error
}
