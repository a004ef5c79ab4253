package models

import "time"

// MilestoneStatus is the stored state of a milestone.
type MilestoneStatus string

const (
	MilestonePending    MilestoneStatus = "pending"
	MilestoneInProgress MilestoneStatus = "in_progress"
	MilestoneCompleted  MilestoneStatus = "completed"
	MilestoneCancelled  MilestoneStatus = "cancelled"

	// MilestoneOverdue is a derived display status only; it is never stored.
	MilestoneOverdue MilestoneStatus = "overdue"
)

// MilestoneStatuses is the closed set of storable milestone statuses.
var MilestoneStatuses = []MilestoneStatus{
	MilestonePending,
	MilestoneInProgress,
	MilestoneCompleted,
	MilestoneCancelled,
}

// Valid reports whether s may be stored on a milestone row.
func (s MilestoneStatus) Valid() bool {
	for _, v := range MilestoneStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Milestone is a dated sub-task of a project tracked to completion.
// CompletedAt is non-nil exactly when Status is completed; both are always
// written in the same statement so the invariant cannot be observed broken.
type Milestone struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ProjectID   uint            `gorm:"index;not null" json:"project_id"`
	Name        string          `gorm:"not null" json:"name" validate:"required"`
	Description string          `gorm:"type:text" json:"description"`
	DueDate     *time.Time      `gorm:"type:date" json:"due_date,omitempty"`
	Status      MilestoneStatus `gorm:"type:varchar(32);index;not null;default:'pending'" json:"status"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
