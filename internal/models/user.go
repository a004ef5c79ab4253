package models

import "time"

// Roles recognized by the engine. Registration and authentication live in a
// separate service; the engine only consumes the role carried by the principal.
const (
	RoleNonprofit  = "nonprofit"
	RoleResearcher = "researcher"
	RoleAdmin      = "admin"
)

// ValidRole reports whether r is one of the recognized roles.
func ValidRole(r string) bool {
	return r == RoleNonprofit || r == RoleResearcher || r == RoleAdmin
}

// User anchors reviewer attribution and ownership. Password and session
// handling belong to the identity service, not this engine.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Email          string    `gorm:"uniqueIndex;not null" json:"email" validate:"required,email"`
	Name           string    `gorm:"not null" json:"name" validate:"required"`
	Role           string    `gorm:"type:varchar(16);not null" json:"role" validate:"required,oneof=nonprofit researcher admin"`
	OrganizationID *uint     `gorm:"index" json:"organization_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
