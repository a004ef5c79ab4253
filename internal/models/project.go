package models

import "time"

// ProjectStatus is the stored review/execution state of a project brief.
type ProjectStatus string

const (
	ProjectDraft         ProjectStatus = "draft"
	ProjectPendingReview ProjectStatus = "pending_review"
	ProjectApproved      ProjectStatus = "approved"
	ProjectNeedsRevision ProjectStatus = "needs_revision"
	ProjectRejected      ProjectStatus = "rejected"
	ProjectOpen          ProjectStatus = "open"
	ProjectInProgress    ProjectStatus = "in_progress"
	ProjectCompleted     ProjectStatus = "completed"
	ProjectCancelled     ProjectStatus = "cancelled"
)

// ProjectStatuses is the closed set of stored project statuses.
var ProjectStatuses = []ProjectStatus{
	ProjectDraft,
	ProjectPendingReview,
	ProjectApproved,
	ProjectNeedsRevision,
	ProjectRejected,
	ProjectOpen,
	ProjectInProgress,
	ProjectCompleted,
	ProjectCancelled,
}

// Valid reports whether s is one of the defined project statuses.
func (s ProjectStatus) Valid() bool {
	for _, v := range ProjectStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// DataSensitivity classifies the data a project works with.
type DataSensitivity string

const (
	SensitivityLow    DataSensitivity = "Low"
	SensitivityMedium DataSensitivity = "Medium"
	SensitivityHigh   DataSensitivity = "High"
)

// Valid reports whether d is a recognized sensitivity level.
func (d DataSensitivity) Valid() bool {
	return d == SensitivityLow || d == SensitivityMedium || d == SensitivityHigh
}

// Project is a brief posted by a nonprofit describing a problem to be researched.
type Project struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	OrganizationID  uint             `gorm:"index;not null" json:"organization_id" validate:"required"`
	Title           string           `gorm:"not null" json:"title" validate:"required"`
	Problem         string           `gorm:"type:text" json:"problem"`
	Outcomes        string           `gorm:"type:text" json:"outcomes"`
	MethodsRequired string           `gorm:"type:text" json:"methods_required"`
	Timeline        string           `gorm:"type:text" json:"timeline"`
	BudgetMin       *float64         `gorm:"type:numeric(12,2)" json:"budget_min" validate:"omitempty,gte=0"`
	DataSensitivity *DataSensitivity `gorm:"type:varchar(16)" json:"data_sensitivity"`
	Status          ProjectStatus    `gorm:"type:varchar(32);index;not null;default:'draft'" json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`

	Milestones []Milestone     `gorm:"constraint:OnDelete:CASCADE" json:"milestones,omitempty"`
	Reviews    []ProjectReview `gorm:"constraint:OnDelete:CASCADE" json:"reviews,omitempty"`
}

// Editable reports whether the project's free-text fields may currently change.
func (p *Project) Editable() bool {
	return p.Status == ProjectDraft || p.Status == ProjectNeedsRevision
}
