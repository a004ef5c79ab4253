// Package schedule computes the read-time view of a milestone: overdue flag,
// day counts, and the effective display status. Nothing here writes state;
// every list and detail response runs through it against the current clock.
package schedule

import (
	"time"

	"github.com/research-bridge/engine/internal/models"
	"github.com/research-bridge/engine/pkg/dates"
)

// Annotated is a milestone plus its derived fields. The derived values are
// computed per response and never persisted.
type Annotated struct {
	models.Milestone
	IsOverdue      bool                   `json:"is_overdue"`
	DaysUntilDue   *int                   `json:"days_until_due"`
	ComputedStatus models.MilestoneStatus `json:"computed_status"`
}

// DaysUntilDue returns the signed whole-day count from now to due, or nil when
// there is no due date. Negative means the due date has passed.
func DaysUntilDue(due *time.Time, now time.Time) *int {
	if due == nil {
		return nil
	}
	d := dates.DaysBetween(now, *due)
	return &d
}

// IsOverdue reports whether m's due date has passed (date-only comparison)
// while m is still in an active status.
func IsOverdue(m models.Milestone, now time.Time) bool {
	if m.DueDate == nil {
		return false
	}
	if m.Status == models.MilestoneCompleted || m.Status == models.MilestoneCancelled {
		return false
	}
	return dates.BeforeDay(*m.DueDate, now)
}

// Annotate derives the read-only fields for a single milestone.
func Annotate(m models.Milestone, now time.Time) Annotated {
	overdue := IsOverdue(m, now)
	status := m.Status
	if overdue {
		status = models.MilestoneOverdue
	}
	return Annotated{
		Milestone:      m,
		IsOverdue:      overdue,
		DaysUntilDue:   DaysUntilDue(m.DueDate, now),
		ComputedStatus: status,
	}
}

// AnnotateAll derives fields for a milestone set using a single clock reading.
func AnnotateAll(ms []models.Milestone, now time.Time) []Annotated {
	out := make([]Annotated, 0, len(ms))
	for _, m := range ms {
		out = append(out, Annotate(m, now))
	}
	return out
}
