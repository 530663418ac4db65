package dto

import (
	"time"

	"github.com/taskhub/project-management-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ProjectUserDTO represents a member of a project with membership attributes
type ProjectUserDTO struct {
	UserID            uint64      `json:"user_id"`
	Name              string      `json:"name"`
	Email             string      `json:"email"`
	Role              models.Role `json:"role"`
	ContributionHours int         `json:"contribution_hours"`
	LastActivity      *time.Time  `json:"last_activity"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}
}

// ToProjectUserDTO converts a membership row to ProjectUserDTO
func ToProjectUserDTO(member models.ProjectMember) ProjectUserDTO {
	return ProjectUserDTO{
		UserID:            member.UserID,
		Name:              member.User.Name,
		Email:             member.User.Email,
		Role:              member.Role,
		ContributionHours: member.ContributionHours,
		LastActivity:      member.LastActivity,
	}
}

// ToProjectUserDTOs converts a slice of membership rows
func ToProjectUserDTOs(members []models.ProjectMember) []ProjectUserDTO {
	dtos := make([]ProjectUserDTO, len(members))
	for i, m := range members {
		dtos[i] = ToProjectUserDTO(m)
	}
	return dtos
}
