package models

import "time"

// ReviewAction is the stored audit label for a project status transition.
type ReviewAction string

const (
	ReviewSubmitted     ReviewAction = "submitted"
	ReviewApproved      ReviewAction = "approved"
	ReviewRejected      ReviewAction = "rejected"
	ReviewNeedsRevision ReviewAction = "needs_revision"
)

// ProjectReview is one append-only audit row per review transition. Rows are
// written in the same transaction as the status change and never updated.
type ProjectReview struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	ProjectID        uint          `gorm:"index;not null" json:"project_id"`
	ReviewerID       *uint         `gorm:"index" json:"reviewer_id,omitempty"`
	Action           ReviewAction  `gorm:"type:varchar(32);not null" json:"action"`
	PreviousStatus   ProjectStatus `gorm:"type:varchar(32);not null" json:"previous_status"`
	NewStatus        ProjectStatus `gorm:"type:varchar(32);not null" json:"new_status"`
	Feedback         string        `gorm:"type:text" json:"feedback,omitempty"`
	ChangesRequested string        `gorm:"type:text" json:"changes_requested,omitempty"`
	ReviewedAt       time.Time     `gorm:"not null" json:"reviewed_at"`
}
