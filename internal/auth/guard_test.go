package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/research-bridge/engine/internal/models"
	appErr "github.com/research-bridge/engine/pkg/errors"
)

func orgPtr(id uint) *uint { return &id }

func TestCanMutateProject(t *testing.T) {
	project := &models.Project{ID: 1, OrganizationID: 7}

	cases := []struct {
		name      string
		principal Principal
		wantCode  appErr.Code
	}{
		{"owner nonprofit allowed", Principal{UserID: 1, Role: models.RoleNonprofit, OrganizationID: orgPtr(7)}, ""},
		{"other org denied", Principal{UserID: 2, Role: models.RoleNonprofit, OrganizationID: orgPtr(8)}, appErr.CodeForbidden},
		{"no affiliation denied", Principal{UserID: 3, Role: models.RoleNonprofit}, appErr.CodeForbidden},
		{"researcher denied", Principal{UserID: 4, Role: models.RoleResearcher, OrganizationID: orgPtr(7)}, appErr.CodeForbidden},
		{"admin denied for ownership path", Principal{UserID: 5, Role: models.RoleAdmin}, appErr.CodeForbidden},
		{"anonymous denied", Principal{}, appErr.CodeUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CanMutateProject(tc.principal, project)
			if tc.wantCode == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.True(t, appErr.IsCode(err, tc.wantCode), "got %v", err)
		})
	}
}

func TestCanReview(t *testing.T) {
	require.NoError(t, CanReview(Principal{UserID: 1, Role: models.RoleAdmin}))
	require.True(t, appErr.IsCode(CanReview(Principal{UserID: 2, Role: models.RoleNonprofit, OrganizationID: orgPtr(1)}), appErr.CodeForbidden))
	require.True(t, appErr.IsCode(CanReview(Principal{UserID: 3, Role: models.RoleResearcher}), appErr.CodeForbidden))
	require.True(t, appErr.IsCode(CanReview(Principal{}), appErr.CodeUnauthorized))
}

func TestCanRead(t *testing.T) {
	require.NoError(t, CanRead(Principal{UserID: 1, Role: models.RoleResearcher}))
	require.NoError(t, CanRead(Principal{UserID: 2, Role: models.RoleNonprofit}))
	require.NoError(t, CanRead(Principal{UserID: 3, Role: models.RoleAdmin}))
	require.Error(t, CanRead(Principal{}))
	require.Error(t, CanRead(Principal{UserID: 4, Role: "intern"}))
}

func TestCanCreateProject(t *testing.T) {
	require.NoError(t, CanCreateProject(Principal{UserID: 1, Role: models.RoleNonprofit, OrganizationID: orgPtr(2)}))
	require.Error(t, CanCreateProject(Principal{UserID: 1, Role: models.RoleNonprofit}))
	require.Error(t, CanCreateProject(Principal{UserID: 1, Role: models.RoleAdmin}))
}

func TestIsAdmin(t *testing.T) {
	require.True(t, IsAdmin(Principal{UserID: 1, Role: models.RoleAdmin}))
	require.False(t, IsAdmin(Principal{Role: models.RoleAdmin}))
	require.False(t, IsAdmin(Principal{UserID: 1, Role: models.RoleNonprofit}))
}
