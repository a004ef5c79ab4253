// Package auth holds the single authorization guard for the review and
// milestone engine. Every service operation calls it before any validation or
// state change, so a disallowed caller never learns why a mutation would
// otherwise have failed.
package auth

import (
	"github.com/research-bridge/engine/internal/models"
	appErr "github.com/research-bridge/engine/pkg/errors"
)

// CanRead allows any authenticated role to read projects, milestones, and stats.
func CanRead(p Principal) error {
	if !p.Authenticated() || !models.ValidRole(p.Role) {
		return appErr.New(appErr.CodeUnauthorized, "authentication required")
	}
	return nil
}

// CanCreateProject requires a nonprofit-affiliated principal.
func CanCreateProject(p Principal) error {
	if !p.Authenticated() {
		return appErr.New(appErr.CodeUnauthorized, "authentication required")
	}
	if p.Role != models.RoleNonprofit || p.OrganizationID == nil {
		return appErr.New(appErr.CodeForbidden, "only nonprofit members may create projects")
	}
	return nil
}

// CanMutateProject gates edits, submits, deletes, and milestone mutations:
// the principal must be a nonprofit member of the project's owning organization.
func CanMutateProject(p Principal, project *models.Project) error {
	if !p.Authenticated() {
		return appErr.New(appErr.CodeUnauthorized, "authentication required")
	}
	if p.Role != models.RoleNonprofit {
		return appErr.New(appErr.CodeForbidden, "role may not modify projects")
	}
	if p.OrganizationID == nil || *p.OrganizationID != project.OrganizationID {
		return appErr.New(appErr.CodeForbidden, "project belongs to another organization")
	}
	return nil
}

// CanReview requires the admin role for approve/reject/request-changes decisions.
func CanReview(p Principal) error {
	if !p.Authenticated() {
		return appErr.New(appErr.CodeUnauthorized, "authentication required")
	}
	if p.Role != models.RoleAdmin {
		return appErr.New(appErr.CodeForbidden, "only admins may review projects")
	}
	return nil
}

// IsAdmin reports whether the principal may take privileged paths, such as
// deleting a project regardless of its review state.
func IsAdmin(p Principal) bool {
	return p.Authenticated() && p.Role == models.RoleAdmin
}
