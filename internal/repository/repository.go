package repository

import (
	"time"

	"github.com/taskhub/project-management-api/internal/models"
)

// ProjectRepository defines the interface for project and membership data access
type ProjectRepository interface {
	// Create creates a new project
	Create(project *models.Project) error

	// FindByID finds a live project by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Project, error)

	// FindByIDWithTrashed finds a project regardless of soft-delete state
	FindByIDWithTrashed(id uint64) (*models.Project, error)

	// ListTrashed retrieves soft-deleted projects
	ListTrashed() ([]models.Project, error)

	// NameExists reports whether a live project with the given name exists
	NameExists(name string, excludeID uint64) (bool, error)

	// Update updates a project
	Update(project *models.Project) error

	// SoftDeleteWithTasks soft deletes a project and its live tasks in one
	// transaction, stamping the tasks with the project's deletion time
	SoftDeleteWithTasks(id uint64) error

	// RestoreWithTasks restores a trashed project and exactly the tasks that
	// were trashed by its cascade
	RestoreWithTasks(id uint64) error

	// ForceDeleteWithTasks permanently removes a project, its tasks and its
	// memberships in one transaction
	ForceDeleteWithTasks(id uint64) error

	// UpsertMember attaches a member or updates the existing membership row
	UpsertMember(member *models.ProjectMember) error

	// RemoveMember detaches a member from a project
	RemoveMember(projectID, userID uint64) error

	// FindMember finds a specific membership row
	FindMember(projectID, userID uint64) (*models.ProjectMember, error)

	// ListMembers lists all members of a project
	ListMembers(projectID uint64) ([]models.ProjectMember, error)

	// ListMembershipsByUser lists all memberships held by a user
	ListMembershipsByUser(userID uint64) ([]models.ProjectMember, error)

	// TouchMemberActivity sets a member's last_activity
	TouchMemberActivity(projectID, userID uint64, at time.Time) error
}

// TaskFilter holds the optional equality predicates for filtering tasks.
// Absent predicates apply no constraint.
type TaskFilter struct {
	ProjectID uint64
	Status    *models.TaskStatus
	Priority  *models.TaskPriority
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a live task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// FindByIDWithTrashed finds a task regardless of soft-delete state
	FindByIDWithTrashed(id uint64) (*models.Task, error)

	// FindByIDOnlyTrashed finds a soft-deleted task by ID
	FindByIDOnlyTrashed(id uint64) (*models.Task, error)

	// ListByProject lists the live tasks of a project
	ListByProject(projectID uint64) ([]models.Task, error)

	// ListTrashedByProject lists the soft-deleted tasks of a project
	ListTrashedByProject(projectID uint64) ([]models.Task, error)

	// ListByProjects lists live tasks across multiple projects
	ListByProjects(projectIDs []uint64, preload ...string) ([]models.Task, error)

	// Filter applies the optional predicates AND-combined over a project's
	// live tasks
	Filter(filter TaskFilter) ([]models.Task, error)

	// LatestByProject returns the most recently created live task
	LatestByProject(projectID uint64) (*models.Task, error)

	// OldestByProject returns the earliest created live task
	OldestByProject(projectID uint64) (*models.Task, error)

	// HighestPriorityByTitle returns the minimum-priority-rank live task whose
	// title contains the given substring
	HighestPriorityByTitle(projectID uint64, titleSubstring string) (*models.Task, error)

	// TitleExists reports whether a live task with the given title exists
	// anywhere (task titles are globally unique)
	TitleExists(title string, excludeID uint64) (bool, error)

	// HasCreatedInProject reports whether the user created at least one live
	// task in the project
	HasCreatedInProject(projectID, userID uint64) (bool, error)

	// Update updates a task
	Update(task *models.Task) error

	// SoftDelete soft deletes a task
	SoftDelete(id uint64) error

	// Restore restores a soft-deleted task
	Restore(id uint64) error

	// ForceDelete permanently removes a task
	ForceDelete(id uint64) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// CreateWithMembership creates a user and their project membership within
	// a single transaction
	CreateWithMembership(user *models.User, member *models.ProjectMember) error

	// FindByID finds a live user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByIDWithTrashed finds a user regardless of soft-delete state
	FindByIDWithTrashed(id uint64) (*models.User, error)

	// FindByIDOnlyTrashed finds a soft-deleted user by ID
	FindByIDOnlyTrashed(id uint64) (*models.User, error)

	// FindByEmail finds a live user by email
	FindByEmail(email string) (*models.User, error)

	// Update updates a user
	Update(user *models.User) error

	// SoftDeleteWithMemberships detaches the user from all projects and soft
	// deletes the record in one transaction
	SoftDeleteWithMemberships(id uint64) error

	// Restore restores a soft-deleted user
	Restore(id uint64) error

	// ForceDelete permanently removes a soft-deleted user
	ForceDelete(id uint64) error

	// ListTrashed lists soft-deleted users
	ListTrashed() ([]models.User, error)

	// IsAdminInAnyProject reports whether the user holds the admin role in at
	// least one project
	IsAdminInAnyProject(userID uint64) (bool, error)
}
