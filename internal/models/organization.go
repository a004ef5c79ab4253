package models

import "time"

// Organization is a nonprofit that posts project briefs.
type Organization struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;uniqueIndex" json:"name" validate:"required"`
	Mission   string    `gorm:"type:text" json:"mission"`
	Website   string    `json:"website"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
