package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/research-bridge/engine/internal/models"
	"github.com/research-bridge/engine/internal/repository"
	appErr "github.com/research-bridge/engine/pkg/errors"
)

// completingProjectRepo fires a hook after the owning project is loaded,
// standing in for a writer that mutates the milestone between that read and
// the update transaction.
type completingProjectRepo struct {
	repository.ProjectRepository
	hook func()
	once sync.Once
}

func (r *completingProjectRepo) GetByID(ctx context.Context, id uint, dest *models.Project) error {
	err := r.ProjectRepository.GetByID(ctx, id, dest)
	if err == nil {
		r.once.Do(r.hook)
	}
	return err
}

func newMilestoneService(t *testing.T) (MilestoneService, *gorm.DB, *models.Project) {
	t.Helper()
	db := newTestDB(t)
	svc := NewMilestoneService(db, repository.NewProjectRepository(db), repository.NewMilestoneRepository(db), fixedNow)

	project := &models.Project{OrganizationID: 1, Title: "Parent brief", Status: models.ProjectOpen}
	require.NoError(t, db.Create(project).Error)
	return svc, db, project
}

func TestCreateMilestoneDueDateValidation(t *testing.T) {
	svc, _, project := newMilestoneService(t)
	ctx := context.Background()

	yesterday := testNow.AddDate(0, 0, -1)
	_, err := svc.CreateMilestone(ctx, nonprofitA, project.ID, &CreateMilestoneInput{Name: "survey", DueDate: &yesterday})
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid), "got %v", err)
	require.Contains(t, err.Error(), "due date must be today or later")

	tomorrow := testNow.AddDate(0, 0, 1)
	m, err := svc.CreateMilestone(ctx, nonprofitA, project.ID, &CreateMilestoneInput{Name: "survey", DueDate: &tomorrow})
	require.NoError(t, err)
	require.Equal(t, models.MilestonePending, m.Status)
	require.Nil(t, m.CompletedAt)
	require.NotNil(t, m.DueDate)

	// Due today is acceptable.
	today := testNow
	_, err = svc.CreateMilestone(ctx, nonprofitA, project.ID, &CreateMilestoneInput{Name: "kickoff", DueDate: &today})
	require.NoError(t, err)
}

func TestCreateMilestoneValidation(t *testing.T) {
	svc, _, project := newMilestoneService(t)
	ctx := context.Background()

	_, err := svc.CreateMilestone(ctx, nonprofitA, project.ID, &CreateMilestoneInput{Name: "   "})
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid), "got %v", err)

	_, err = svc.CreateMilestone(ctx, nonprofitA, project.ID, &CreateMilestoneInput{Name: "x", Status: strPtr("paused")})
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid), "got %v", err)

	_, err = svc.CreateMilestone(ctx, nonprofitA, 404, &CreateMilestoneInput{Name: "x"})
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound), "got %v", err)
}

func TestCreateCompletedMilestoneSetsCompletedAt(t *testing.T) {
	svc, _, project := newMilestoneService(t)

	m, err := svc.CreateMilestone(context.Background(), nonprofitA, project.ID, &CreateMilestoneInput{Name: "done already", Status: strPtr("completed")})
	require.NoError(t, err)
	require.Equal(t, models.MilestoneCompleted, m.Status)
	require.NotNil(t, m.CompletedAt)
}

func TestCompletedAtRoundTrip(t *testing.T) {
	svc, _, project := newMilestoneService(t)
	ctx := context.Background()

	m, err := svc.CreateMilestone(ctx, nonprofitA, project.ID, &CreateMilestoneInput{Name: "field work"})
	require.NoError(t, err)
	require.Nil(t, m.CompletedAt)

	// pending -> completed stamps completed_at.
	m, err = svc.UpdateMilestone(ctx, nonprofitA, project.ID, m.ID, &UpdateMilestoneInput{Status: strPtr("completed")})
	require.NoError(t, err)
	require.Equal(t, models.MilestoneCompleted, m.Status)
	require.NotNil(t, m.CompletedAt)

	// completed -> in_progress clears it in the same call.
	m, err = svc.UpdateMilestone(ctx, nonprofitA, project.ID, m.ID, &UpdateMilestoneInput{Status: strPtr("in_progress")})
	require.NoError(t, err)
	require.Equal(t, models.MilestoneInProgress, m.Status)
	require.Nil(t, m.CompletedAt)

	// And back again.
	m, err = svc.UpdateMilestone(ctx, nonprofitA, project.ID, m.ID, &UpdateMilestoneInput{Status: strPtr("completed")})
	require.NoError(t, err)
	require.NotNil(t, m.CompletedAt)
}

func TestUpdateMilestoneValidation(t *testing.T) {
	svc, _, project := newMilestoneService(t)
	ctx := context.Background()

	m, err := svc.CreateMilestone(ctx, nonprofitA, project.ID, &CreateMilestoneInput{Name: "analysis"})
	require.NoError(t, err)

	_, err = svc.UpdateMilestone(ctx, nonprofitA, project.ID, m.ID, &UpdateMilestoneInput{Name: strPtr("  ")})
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid), "got %v", err)

	_, err = svc.UpdateMilestone(ctx, nonprofitA, project.ID, m.ID, &UpdateMilestoneInput{Status: strPtr("blocked")})
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid), "got %v", err)

	// Past due dates are fine on edits.
	yesterday := testNow.AddDate(0, 0, -1)
	updated, err := svc.UpdateMilestone(ctx, nonprofitA, project.ID, m.ID, &UpdateMilestoneInput{DueDate: &yesterday})
	require.NoError(t, err)
	require.NotNil(t, updated.DueDate)
}

func TestMilestoneParentMismatch(t *testing.T) {
	svc, db, project := newMilestoneService(t)
	ctx := context.Background()

	other := &models.Project{OrganizationID: 1, Title: "Other brief", Status: models.ProjectOpen}
	require.NoError(t, db.Create(other).Error)

	m, err := svc.CreateMilestone(ctx, nonprofitA, project.ID, &CreateMilestoneInput{Name: "interviews"})
	require.NoError(t, err)

	// Addressing the milestone through the wrong parent is a not-found.
	_, err = svc.UpdateMilestone(ctx, nonprofitA, other.ID, m.ID, &UpdateMilestoneInput{Name: strPtr("renamed")})
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound), "got %v", err)
	err = svc.DeleteMilestone(ctx, nonprofitA, other.ID, m.ID)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound), "got %v", err)
}

func TestCrossOrganizationMutationDenied(t *testing.T) {
	svc, db, project := newMilestoneService(t)
	ctx := context.Background()

	m, err := svc.CreateMilestone(ctx, nonprofitA, project.ID, &CreateMilestoneInput{Name: "original"})
	require.NoError(t, err)

	_, err = svc.UpdateMilestone(ctx, nonprofitB, project.ID, m.ID, &UpdateMilestoneInput{Name: strPtr("hijacked")})
	require.True(t, appErr.IsCode(err, appErr.CodeForbidden), "got %v", err)

	// No row was modified.
	var stored models.Milestone
	require.NoError(t, db.First(&stored, m.ID).Error)
	require.Equal(t, "original", stored.Name)

	err = svc.DeleteMilestone(ctx, nonprofitB, project.ID, m.ID)
	require.True(t, appErr.IsCode(err, appErr.CodeForbidden), "got %v", err)
}

func TestListMilestonesFilters(t *testing.T) {
	svc, _, project := newMilestoneService(t)
	ctx := context.Background()

	tomorrow := testNow.AddDate(0, 0, 1)
	m1, err := svc.CreateMilestone(ctx, nonprofitA, project.ID, &CreateMilestoneInput{Name: "a", DueDate: &tomorrow})
	require.NoError(t, err)
	_, err = svc.CreateMilestone(ctx, nonprofitA, project.ID, &CreateMilestoneInput{Name: "b", Status: strPtr("in_progress")})
	require.NoError(t, err)

	// Push one due date into the past via an edit to make it overdue.
	yesterday := testNow.AddDate(0, 0, -1)
	_, err = svc.UpdateMilestone(ctx, nonprofitA, project.ID, m1.ID, &UpdateMilestoneInput{DueDate: &yesterday})
	require.NoError(t, err)

	all, err := svc.ListMilestones(ctx, researcher, project.ID, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	inProgress, err := svc.ListMilestones(ctx, researcher, project.ID, &MilestoneFilter{Status: strPtr("in_progress")})
	require.NoError(t, err)
	require.Len(t, inProgress, 1)
	require.Equal(t, "b", inProgress[0].Name)

	overdue, err := svc.ListMilestones(ctx, researcher, project.ID, &MilestoneFilter{Overdue: true})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, "a", overdue[0].Name)
	require.True(t, overdue[0].IsOverdue)
	require.Equal(t, models.MilestoneOverdue, overdue[0].ComputedStatus)

	_, err = svc.ListMilestones(ctx, researcher, project.ID, &MilestoneFilter{Status: strPtr("overdue")})
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid), "got %v", err)
}

func TestMilestoneStats(t *testing.T) {
	svc, _, project := newMilestoneService(t)
	ctx := context.Background()

	tomorrow := testNow.AddDate(0, 0, 1)
	yesterday := testNow.AddDate(0, 0, -1)

	seed := []struct {
		name   string
		status string
		late   bool
	}{
		{"m1", "pending", false},
		{"m2", "in_progress", false},
		{"m3", "completed", false},
		{"m4", "completed", false},
		{"m5", "in_progress", true},
		{"m6", "cancelled", false},
	}
	for _, s := range seed {
		m, err := svc.CreateMilestone(ctx, nonprofitA, project.ID, &CreateMilestoneInput{Name: s.name, Status: strPtr(s.status), DueDate: &tomorrow})
		require.NoError(t, err)
		if s.late {
			_, err = svc.UpdateMilestone(ctx, nonprofitA, project.ID, m.ID, &UpdateMilestoneInput{DueDate: &yesterday})
			require.NoError(t, err)
		}
	}

	stats, err := svc.GetMilestoneStats(ctx, researcher, project.ID)
	require.NoError(t, err)
	require.Equal(t, 6, stats.Total)
	require.Equal(t, 1, stats.Pending)
	require.Equal(t, 2, stats.InProgress)
	require.Equal(t, 2, stats.Completed)
	require.Equal(t, 1, stats.Cancelled)
	require.Equal(t, 1, stats.Overdue)
	require.Equal(t, 33, stats.CompletionRate)
}

func TestMilestoneStatsEmptyAndOrderIndependent(t *testing.T) {
	ctx := context.Background()

	svc, _, project := newMilestoneService(t)
	stats, err := svc.GetMilestoneStats(ctx, researcher, project.ID)
	require.NoError(t, err)
	require.Equal(t, 0, stats.Total)
	require.Equal(t, 0, stats.CompletionRate)

	// The same multiset of statuses yields the same rate in any creation order.
	orders := [][]string{
		{"completed", "pending", "pending"},
		{"pending", "pending", "completed"},
	}
	for _, order := range orders {
		svc, _, project := newMilestoneService(t)
		for i, st := range order {
			_, err := svc.CreateMilestone(ctx, nonprofitA, project.ID, &CreateMilestoneInput{Name: string(rune('a' + i)), Status: strPtr(st)})
			require.NoError(t, err)
		}
		stats, err := svc.GetMilestoneStats(ctx, researcher, project.ID)
		require.NoError(t, err)
		require.Equal(t, 33, stats.CompletionRate)
	}
}

func TestGetMilestoneAnnotated(t *testing.T) {
	svc, _, project := newMilestoneService(t)
	ctx := context.Background()

	in3days := testNow.AddDate(0, 0, 3)
	m, err := svc.CreateMilestone(ctx, nonprofitA, project.ID, &CreateMilestoneInput{Name: "report", DueDate: &in3days})
	require.NoError(t, err)

	a, err := svc.GetMilestone(ctx, researcher, project.ID, m.ID)
	require.NoError(t, err)
	require.False(t, a.IsOverdue)
	require.NotNil(t, a.DaysUntilDue)
	require.Equal(t, 3, *a.DaysUntilDue)
	require.Equal(t, models.MilestonePending, a.ComputedStatus)
}

func TestUpdateMilestoneCompletedAtFromCurrentRow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	project := &models.Project{OrganizationID: 1, Title: "Parent brief", Status: models.ProjectOpen}
	require.NoError(t, db.Create(project).Error)
	m := &models.Milestone{ProjectID: project.ID, Name: "deploy sensors", Status: models.MilestoneInProgress}
	require.NoError(t, db.Create(m).Error)

	// Another writer completes the milestone right after the owning project
	// is loaded. The completed_at decision must still come from the row as
	// the transaction sees it, so the stray timestamp gets cleared.
	repo := &completingProjectRepo{
		ProjectRepository: repository.NewProjectRepository(db),
		hook: func() {
			require.NoError(t, db.Model(&models.Milestone{}).Where("id = ?", m.ID).
				Updates(map[string]any{"status": models.MilestoneCompleted, "completed_at": testNow}).Error)
		},
	}
	svc := NewMilestoneService(db, repo, repository.NewMilestoneRepository(db), fixedNow)

	updated, err := svc.UpdateMilestone(ctx, nonprofitA, project.ID, m.ID, &UpdateMilestoneInput{Status: strPtr("in_progress")})
	require.NoError(t, err)
	require.Equal(t, models.MilestoneInProgress, updated.Status)
	require.Nil(t, updated.CompletedAt)

	var row models.Milestone
	require.NoError(t, db.First(&row, m.ID).Error)
	require.Equal(t, models.MilestoneInProgress, row.Status)
	require.Nil(t, row.CompletedAt)
}
