package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/taskhub/project-management-api/internal/constants"
	"github.com/taskhub/project-management-api/internal/models"
	"github.com/taskhub/project-management-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserNotInProject = errors.New("user not found in this project")
	ErrEmailTaken       = errors.New("email already in use")
	ErrInvalidRole      = errors.New("invalid role")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", constants.MinPasswordLength)
)

// UserService manages users within projects. Most operations are gated on
// the actor's role in the target project; system-wide user removal and
// restore require the actor to be admin in at least one project.
type UserService struct {
	roleResolver
	userRepo    repository.UserRepository
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository, projectRepo repository.ProjectRepository, taskRepo repository.TaskRepository) *UserService {
	return &UserService{
		roleResolver: roleResolver{projectRepo: projectRepo},
		userRepo:     userRepo,
		projectRepo:  projectRepo,
		taskRepo:     taskRepo,
	}
}

// CreateUserInput represents input for creating a user inside a project
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

// UpdateUserInput represents input for updating a user's own fields
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
}

// AssignRoleInput represents input for assigning a role within a project
type AssignRoleInput struct {
	Role              models.Role
	ContributionHours int
	LastActivity      *time.Time
}

// ListProjectUsers returns a project's members with their role, contribution
// hours and last activity. Admin role required.
func (s *UserService) ListProjectUsers(actorID, projectID uint64) ([]models.ProjectMember, error) {
	if err := s.ensureProject(projectID); err != nil {
		return nil, err
	}

	if err := s.requireRole(projectID, actorID, models.RoleAdmin); err != nil {
		return nil, err
	}

	members, err := s.projectRepo.ListMembers(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project users: %w", err)
	}

	return members, nil
}

// GetProjectUser returns a single member of a project. Admins see any member;
// managers see only fellow managers.
func (s *UserService) GetProjectUser(actorID, projectID, targetID uint64) (*models.ProjectMember, error) {
	if err := s.ensureProject(projectID); err != nil {
		return nil, err
	}

	actorRole, err := s.roleIn(projectID, actorID)
	if err != nil {
		return nil, err
	}

	member, err := s.projectRepo.FindMember(projectID, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotInProject
		}
		return nil, fmt.Errorf("failed to find project user: %w", err)
	}

	switch actorRole {
	case models.RoleAdmin:
		return s.withUser(member)
	case models.RoleManager:
		if member.Role != models.RoleManager {
			return nil, ErrUnauthorized
		}
		return s.withUser(member)
	default:
		return nil, ErrUnauthorized
	}
}

// CreateProjectUser creates a user and attaches them to the project with the
// requested role. Admin role required.
func (s *UserService) CreateProjectUser(actorID, projectID uint64, input CreateUserInput) (*models.User, error) {
	if err := s.ensureProject(projectID); err != nil {
		return nil, err
	}

	if err := s.requireRole(projectID, actorID, models.RoleAdmin); err != nil {
		return nil, err
	}

	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}

	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByEmail(input.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
	}

	now := time.Now()
	member := &models.ProjectMember{
		ProjectID:         projectID,
		Role:              input.Role,
		ContributionHours: 0,
		LastActivity:      &now,
	}

	if err := s.userRepo.CreateWithMembership(user, member); err != nil {
		return nil, fmt.Errorf("failed to create project user: %w", err)
	}

	return user, nil
}

// UpdateProjectUser updates a user's own fields. Allowed for project admins
// and for the user themselves; the target is looked up including trashed
// records.
func (s *UserService) UpdateProjectUser(actorID, projectID, targetID uint64, input UpdateUserInput) (*models.User, error) {
	if err := s.ensureProject(projectID); err != nil {
		return nil, err
	}

	actorRole, err := s.roleIn(projectID, actorID)
	if err != nil {
		return nil, err
	}

	target, err := s.userRepo.FindByIDWithTrashed(targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if actorRole != models.RoleAdmin && actorID != target.ID {
		return nil, ErrUnauthorized
	}

	if input.Name != nil {
		target.Name = *input.Name
	}
	if input.Email != nil && *input.Email != target.Email {
		if _, err := s.userRepo.FindByEmail(*input.Email); err == nil {
			return nil, ErrEmailTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		target.Email = *input.Email
	}
	if input.Password != nil {
		if len(*input.Password) < constants.MinPasswordLength {
			return nil, ErrPasswordTooShort
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		target.PasswordHash = string(hash)
	}

	if err := s.userRepo.Update(target); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return target, nil
}

// DeleteUser detaches a user from all projects and soft deletes the record.
// The actor must be admin in at least one project.
func (s *UserService) DeleteUser(actorID, targetID uint64) error {
	if err := s.requireAdminAnywhere(actorID); err != nil {
		return err
	}

	if _, err := s.userRepo.FindByID(targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.userRepo.SoftDeleteWithMemberships(targetID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}

// RestoreUser restores a soft-deleted user. The actor must be admin in at
// least one project.
func (s *UserService) RestoreUser(actorID, targetID uint64) error {
	if err := s.requireAdminAnywhere(actorID); err != nil {
		return err
	}

	if _, err := s.userRepo.FindByIDOnlyTrashed(targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.userRepo.Restore(targetID); err != nil {
		return fmt.Errorf("failed to restore user: %w", err)
	}

	return nil
}

// ForceDeleteUser permanently removes a soft-deleted user. The actor must be
// admin in at least one project.
func (s *UserService) ForceDeleteUser(actorID, targetID uint64) error {
	if err := s.requireAdminAnywhere(actorID); err != nil {
		return err
	}

	if _, err := s.userRepo.FindByIDOnlyTrashed(targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.userRepo.ForceDelete(targetID); err != nil {
		return fmt.Errorf("failed to permanently delete user: %w", err)
	}

	return nil
}

// AssignRole sets a user's role within a project, creating or updating the
// membership row. Admin role required.
func (s *UserService) AssignRole(actorID, projectID, targetID uint64, input AssignRoleInput) error {
	if err := s.ensureProject(projectID); err != nil {
		return err
	}

	if err := s.requireRole(projectID, actorID, models.RoleAdmin); err != nil {
		return err
	}

	if !input.Role.Valid() {
		return ErrInvalidRole
	}
	if input.ContributionHours < 0 {
		return ErrNegativeHours
	}

	if _, err := s.userRepo.FindByID(targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	lastActivity := input.LastActivity
	if lastActivity == nil {
		now := time.Now()
		lastActivity = &now
	}

	member := &models.ProjectMember{
		ProjectID:         projectID,
		UserID:            targetID,
		Role:              input.Role,
		ContributionHours: input.ContributionHours,
		LastActivity:      lastActivity,
	}

	if err := s.projectRepo.UpsertMember(member); err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}

	return nil
}

// ListUserTasks returns the live tasks across every project the target user
// belongs to, with creator, assignee and project loaded.
func (s *UserService) ListUserTasks(targetID uint64) ([]models.Task, error) {
	if _, err := s.userRepo.FindByID(targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	memberships, err := s.projectRepo.ListMembershipsByUser(targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	projectIDs := make([]uint64, 0, len(memberships))
	for _, m := range memberships {
		projectIDs = append(projectIDs, m.ProjectID)
	}

	tasks, err := s.taskRepo.ListByProjects(projectIDs, "Creator", "Assignee", "Project")
	if err != nil {
		return nil, fmt.Errorf("failed to list user tasks: %w", err)
	}

	return tasks, nil
}

// ListTrashedUsers returns soft-deleted users. The actor must be admin in at
// least one project.
func (s *UserService) ListTrashedUsers(actorID uint64) ([]models.User, error) {
	if err := s.requireAdminAnywhere(actorID); err != nil {
		return nil, err
	}

	users, err := s.userRepo.ListTrashed()
	if err != nil {
		return nil, fmt.Errorf("failed to list trashed users: %w", err)
	}

	return users, nil
}

func (s *UserService) requireAdminAnywhere(actorID uint64) error {
	isAdmin, err := s.userRepo.IsAdminInAnyProject(actorID)
	if err != nil {
		return fmt.Errorf("failed to check admin role: %w", err)
	}
	if !isAdmin {
		return ErrUnauthorized
	}
	return nil
}

func (s *UserService) ensureProject(projectID uint64) error {
	if _, err := s.projectRepo.FindByID(projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to find project: %w", err)
	}
	return nil
}

func (s *UserService) withUser(member *models.ProjectMember) (*models.ProjectMember, error) {
	user, err := s.userRepo.FindByIDWithTrashed(member.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load member user: %w", err)
	}
	member.User = *user
	return member, nil
}
