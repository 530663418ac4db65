package services

import (
	"errors"
	"fmt"

	"github.com/taskhub/project-management-api/internal/models"
	"github.com/taskhub/project-management-api/internal/repository"
	"gorm.io/gorm"
)

var (
	// ErrUnauthorized is returned when the actor's project role does not
	// permit the requested action.
	ErrUnauthorized = errors.New("unauthorized")
)

// roleResolver answers "what is this user's role in this project". Every
// policy check starts here. RoleNone means no membership row exists; storage
// failures propagate.
type roleResolver struct {
	projectRepo repository.ProjectRepository
}

func (r roleResolver) roleIn(projectID, userID uint64) (models.Role, error) {
	member, err := r.projectRepo.FindMember(projectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RoleNone, nil
		}
		return models.RoleNone, fmt.Errorf("failed to resolve project role: %w", err)
	}
	return member.Role, nil
}

// requireRole resolves the actor's role and fails with ErrUnauthorized unless
// it matches one of the accepted roles
func (r roleResolver) requireRole(projectID, userID uint64, accepted ...models.Role) error {
	role, err := r.roleIn(projectID, userID)
	if err != nil {
		return err
	}
	for _, a := range accepted {
		if role == a {
			return nil
		}
	}
	return ErrUnauthorized
}
