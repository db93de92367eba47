package models

import "time"

// Role names seeded at startup.
const (
	RoleAdministrator = "administrator"
	RoleUser          = "user"
)

// Role represents user roles with numeric primary key
type Role struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string `gorm:"size:32;uniqueIndex;not null"`
	Description string `gorm:"size:255"`
}

// DefaultRoles are created when missing.
func DefaultRoles() []Role {
	return []Role{
		{Name: RoleAdministrator, Description: "full access"},
		{Name: RoleUser, Description: "license holder"},
	}
}
