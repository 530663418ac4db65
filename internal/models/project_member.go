package models

import "time"

// Role is scoped to a single project through a ProjectMember row.
// There is no global role on the user record.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleDeveloper Role = "developer"
	RoleTester    Role = "tester"

	// RoleNone is the resolver result for users with no membership row.
	// It is never persisted.
	RoleNone Role = ""
)

// Valid reports whether r is one of the persistable roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleDeveloper, RoleTester:
		return true
	}
	return false
}

type ProjectMember struct {
	ProjectID         uint64     `gorm:"primarykey" json:"project_id"`
	UserID            uint64     `gorm:"primarykey" json:"user_id"`
	Role              Role       `gorm:"type:varchar(20);not null" json:"role"`
	ContributionHours int        `gorm:"not null;default:0" json:"contribution_hours"`
	LastActivity      *time.Time `json:"last_activity"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
