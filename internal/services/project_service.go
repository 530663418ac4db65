package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskhub/project-management-api/internal/config"
	"github.com/taskhub/project-management-api/internal/models"
	"github.com/taskhub/project-management-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound       = errors.New("project not found")
	ErrProjectNameTaken      = errors.New("a live project with this name already exists")
	ErrInvalidProjectName    = errors.New("project name cannot be empty")
	ErrDefaultAdminMissing   = errors.New("default project admin account does not exist")
	ErrProjectMemberNotFound = errors.New("user is not a member of this project")
	ErrNegativeHours         = errors.New("contribution hours cannot be negative")
)

// ProjectService enforces the project access policy: listing and single
// lookups are admin-gated, project creation attaches the configured
// designated admin rather than the creator, and delete/restore/force-delete
// cascade to the project's tasks.
type ProjectService struct {
	roleResolver
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
	userRepo    repository.UserRepository
	cfg         *config.Config
}

// NewProjectService creates a new ProjectService
func NewProjectService(projectRepo repository.ProjectRepository, taskRepo repository.TaskRepository, userRepo repository.UserRepository, cfg *config.Config) *ProjectService {
	return &ProjectService{
		roleResolver: roleResolver{projectRepo: projectRepo},
		projectRepo:  projectRepo,
		taskRepo:     taskRepo,
		userRepo:     userRepo,
		cfg:          cfg,
	}
}

// CreateProjectInput represents parameters to create a new project
type CreateProjectInput struct {
	Name        string
	Description string
}

// UpdateProjectInput represents parameters to update a project
type UpdateProjectInput struct {
	Name        *string
	Description *string
}

// AssignUserInput represents parameters to attach a user to a project
type AssignUserInput struct {
	UserID            uint64
	Role              models.Role
	ContributionHours int
}

// ListAuthorizedProjects returns the projects where the actor holds the admin
// role. Projects where the actor holds any other role are not listed.
func (s *ProjectService) ListAuthorizedProjects(actorID uint64) ([]models.Project, error) {
	memberships, err := s.projectRepo.ListMembershipsByUser(actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	projects := make([]models.Project, 0, len(memberships))
	for _, m := range memberships {
		if m.Role == models.RoleAdmin && m.Project.ID != 0 {
			projects = append(projects, m.Project)
		}
	}

	return projects, nil
}

// GetProject returns a project with its members. Admin role required.
func (s *ProjectService) GetProject(actorID, projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID, "Members", "Members.User")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if err := s.requireRole(projectID, actorID, models.RoleAdmin); err != nil {
		return nil, err
	}

	return project, nil
}

// CreateProject creates a project. Any authenticated actor may create one;
// the configured designated admin identity is attached as admin, not the
// creator.
func (s *ProjectService) CreateProject(actorID uint64, input CreateProjectInput) (*models.Project, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrInvalidProjectName
	}

	taken, err := s.projectRepo.NameExists(input.Name, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to check project name: %w", err)
	}
	if taken {
		return nil, ErrProjectNameTaken
	}

	admin, err := s.userRepo.FindByEmail(s.cfg.DefaultProjectAdminEmail)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDefaultAdminMissing
		}
		return nil, fmt.Errorf("failed to find default project admin: %w", err)
	}

	project := &models.Project{
		Name:        input.Name,
		Description: input.Description,
	}

	if err := s.projectRepo.Create(project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	now := time.Now()
	member := &models.ProjectMember{
		ProjectID:         project.ID,
		UserID:            admin.ID,
		Role:              models.RoleAdmin,
		ContributionHours: 0,
		LastActivity:      &now,
	}

	if err := s.projectRepo.UpsertMember(member); err != nil {
		return nil, fmt.Errorf("failed to attach default admin: %w", err)
	}

	return project, nil
}

// UpdateProject updates a project's name and description. The role check is
// bypassed unless StrictProjectUpdate is set; the permissive variant is the
// default.
func (s *ProjectService) UpdateProject(actorID, projectID uint64, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if s.cfg.StrictProjectUpdate {
		if err := s.requireRole(projectID, actorID, models.RoleAdmin); err != nil {
			return nil, err
		}
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, ErrInvalidProjectName
		}
		taken, err := s.projectRepo.NameExists(*input.Name, projectID)
		if err != nil {
			return nil, fmt.Errorf("failed to check project name: %w", err)
		}
		if taken {
			return nil, ErrProjectNameTaken
		}
		project.Name = *input.Name
	}
	if input.Description != nil {
		project.Description = *input.Description
	}

	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return project, nil
}

// DeleteProject soft deletes a project and cascades to its live tasks.
// Admin role required.
func (s *ProjectService) DeleteProject(actorID, projectID uint64) error {
	if _, err := s.projectRepo.FindByID(projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to find project: %w", err)
	}

	if err := s.requireRole(projectID, actorID, models.RoleAdmin); err != nil {
		return err
	}

	if err := s.projectRepo.SoftDeleteWithTasks(projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}

// RestoreProject restores a trashed project together with the tasks its
// deletion cascaded to. Tasks deleted independently beforehand stay trashed.
// Admin role required.
func (s *ProjectService) RestoreProject(actorID, projectID uint64) error {
	if _, err := s.projectRepo.FindByIDWithTrashed(projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to find project: %w", err)
	}

	if err := s.requireRole(projectID, actorID, models.RoleAdmin); err != nil {
		return err
	}

	if err := s.projectRepo.RestoreWithTasks(projectID); err != nil {
		return fmt.Errorf("failed to restore project: %w", err)
	}

	return nil
}

// ForceDeleteProject permanently removes a project with its tasks and
// memberships. Admin role required.
func (s *ProjectService) ForceDeleteProject(actorID, projectID uint64) error {
	if _, err := s.projectRepo.FindByIDWithTrashed(projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to find project: %w", err)
	}

	if err := s.requireRole(projectID, actorID, models.RoleAdmin); err != nil {
		return err
	}

	if err := s.projectRepo.ForceDeleteWithTasks(projectID); err != nil {
		return fmt.Errorf("failed to permanently delete project: %w", err)
	}

	return nil
}

// AssignUser attaches a user to a project with a role. Re-assigning updates
// the existing membership row. Admin role required.
func (s *ProjectService) AssignUser(actorID, projectID uint64, input AssignUserInput) error {
	if _, err := s.projectRepo.FindByID(projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to find project: %w", err)
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

	if _, err := s.userRepo.FindByID(input.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	now := time.Now()
	member := &models.ProjectMember{
		ProjectID:         projectID,
		UserID:            input.UserID,
		Role:              input.Role,
		ContributionHours: input.ContributionHours,
		LastActivity:      &now,
	}

	if err := s.projectRepo.UpsertMember(member); err != nil {
		return fmt.Errorf("failed to assign user: %w", err)
	}

	return nil
}

// RemoveUser detaches a user from a project. Admin role required.
func (s *ProjectService) RemoveUser(actorID, projectID, userID uint64) error {
	if _, err := s.projectRepo.FindByID(projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to find project: %w", err)
	}

	if err := s.requireRole(projectID, actorID, models.RoleAdmin); err != nil {
		return err
	}

	if _, err := s.projectRepo.FindMember(projectID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectMemberNotFound
		}
		return fmt.Errorf("failed to find member: %w", err)
	}

	if err := s.projectRepo.RemoveMember(projectID, userID); err != nil {
		return fmt.Errorf("failed to remove user: %w", err)
	}

	return nil
}

// LatestTask returns the most recently created live task of a project.
// Admin role required.
func (s *ProjectService) LatestTask(actorID, projectID uint64) (*models.Task, error) {
	return s.boundaryTask(actorID, projectID, s.taskRepo.LatestByProject)
}

// OldestTask returns the earliest created live task of a project.
// Admin role required.
func (s *ProjectService) OldestTask(actorID, projectID uint64) (*models.Task, error) {
	return s.boundaryTask(actorID, projectID, s.taskRepo.OldestByProject)
}

func (s *ProjectService) boundaryTask(actorID, projectID uint64, lookup func(uint64) (*models.Task, error)) (*models.Task, error) {
	if _, err := s.projectRepo.FindByID(projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if err := s.requireRole(projectID, actorID, models.RoleAdmin); err != nil {
		return nil, err
	}

	task, err := lookup(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to fetch task: %w", err)
	}

	return task, nil
}

// HighestPriorityTask returns the most urgent live task whose title contains
// the given substring (high before medium before low). The lookup is ungated
// by default; GatePriorityLookup switches on an admin role check.
func (s *ProjectService) HighestPriorityTask(actorID, projectID uint64, titleCondition string) (*models.Task, error) {
	if _, err := s.projectRepo.FindByID(projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if s.cfg.GatePriorityLookup {
		if err := s.requireRole(projectID, actorID, models.RoleAdmin); err != nil {
			return nil, err
		}
	}

	task, err := s.taskRepo.HighestPriorityByTitle(projectID, titleCondition)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to fetch highest priority task: %w", err)
	}

	return task, nil
}

// ListTrashedProjects returns soft-deleted projects where the actor was admin
func (s *ProjectService) ListTrashedProjects(actorID uint64) ([]models.Project, error) {
	trashed, err := s.projectRepo.ListTrashed()
	if err != nil {
		return nil, fmt.Errorf("failed to list trashed projects: %w", err)
	}

	projects := make([]models.Project, 0, len(trashed))
	for _, p := range trashed {
		role, err := s.roleIn(p.ID, actorID)
		if err != nil {
			return nil, err
		}
		if role == models.RoleAdmin {
			projects = append(projects, p)
		}
	}

	return projects, nil
}
