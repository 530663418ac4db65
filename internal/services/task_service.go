package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/taskhub/project-management-api/internal/models"
	"github.com/taskhub/project-management-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrTaskForbidden          = errors.New("user may not view this task")
	ErrTaskTitleTaken         = errors.New("a live task with this title already exists")
	ErrAssigneeRoleInvalid    = errors.New("the assigned user must be a tester or developer")
	ErrDueDatePassed          = errors.New("cannot update status because the due date has passed")
	ErrNoteRequiresCompletion = errors.New("notes can only be added to tasks with a status of completed")
	ErrInvalidStatus          = errors.New("invalid task status")
	ErrInvalidPriority        = errors.New("invalid task priority")
)

// filterRoles is the set of roles allowed to run the task filter.
var filterRoles = []models.Role{
	models.RoleManager, models.RoleAdmin, models.RoleTester, models.RoleDeveloper,
}

// TaskService enforces the task lifecycle policy. Authorization combines the
// actor's project role with ownership (creator) and assignment; two
// operations carry an extra state guard (due date on status changes,
// completion on notes). Every authorized mutation touches the actor's
// membership last_activity.
type TaskService struct {
	roleResolver
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository) *TaskService {
	return &TaskService{
		roleResolver: roleResolver{projectRepo: projectRepo},
		taskRepo:     taskRepo,
		projectRepo:  projectRepo,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     time.Time
	AssignedTo  *uint64
}

// UpdateTaskInput represents input for updating a task's general fields
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
	Priority    *models.TaskPriority
	DueDate     *time.Time
	AssignedTo  *uint64
}

// FilterTasksInput holds the optional equality filters
type FilterTasksInput struct {
	Status   *models.TaskStatus
	Priority *models.TaskPriority
}

// ListTasks returns the live tasks of a project. Allowed for project admins
// and for users who created at least one task in the project.
func (s *TaskService) ListTasks(actorID, projectID uint64) ([]models.Task, error) {
	if _, err := s.findProject(projectID); err != nil {
		return nil, err
	}

	role, err := s.roleIn(projectID, actorID)
	if err != nil {
		return nil, err
	}

	if role != models.RoleAdmin {
		created, err := s.taskRepo.HasCreatedInProject(projectID, actorID)
		if err != nil {
			return nil, fmt.Errorf("failed to check created tasks: %w", err)
		}
		if !created {
			return nil, ErrUnauthorized
		}
	}

	tasks, err := s.taskRepo.ListByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

// GetTask returns a single task. Visible to project admins, the creator and
// the assignee; everyone else gets ErrTaskForbidden.
func (s *TaskService) GetTask(actorID, taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Creator", "Assignee")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	role, err := s.roleIn(task.ProjectID, actorID)
	if err != nil {
		return nil, err
	}

	if role == models.RoleAdmin || isOwner(task.CreatedBy, actorID) || isOwner(task.AssignedTo, actorID) {
		return task, nil
	}

	return nil, ErrTaskForbidden
}

// CreateTask creates a task in a project. If an assignee is given, their role
// in the project must be tester or developer; this is validated before any
// write so a rejection leaves nothing behind.
func (s *TaskService) CreateTask(actorID, projectID uint64, input CreateTaskInput) (*models.Task, error) {
	if _, err := s.findProject(projectID); err != nil {
		return nil, err
	}

	if input.Status == "" {
		input.Status = models.TaskStatusNew
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}

	taken, err := s.taskRepo.TitleExists(input.Title, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to check task title: %w", err)
	}
	if taken {
		return nil, ErrTaskTitleTaken
	}

	if input.AssignedTo != nil {
		assigneeRole, err := s.roleIn(projectID, *input.AssignedTo)
		if err != nil {
			return nil, err
		}
		if assigneeRole != models.RoleTester && assigneeRole != models.RoleDeveloper {
			return nil, ErrAssigneeRoleInvalid
		}
	}

	task := &models.Task{
		ProjectID:   projectID,
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		AssignedTo:  input.AssignedTo,
		CreatedBy:   &actorID,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if err := s.touchActivity(projectID, actorID); err != nil {
		return nil, err
	}

	return task, nil
}

// UpdateTaskStatus sets a task's status. Allowed for project admins and for
// developers assigned to the task; rejected once the due date has passed,
// regardless of role.
func (s *TaskService) UpdateTaskStatus(actorID, taskID uint64, status models.TaskStatus) (*models.Task, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	role, err := s.roleIn(task.ProjectID, actorID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && (role != models.RoleDeveloper || !isOwner(task.AssignedTo, actorID)) {
		return nil, ErrUnauthorized
	}

	if time.Now().After(task.DueDate) {
		return nil, ErrDueDatePassed
	}

	task.Status = status
	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}

	if err := s.touchActivity(task.ProjectID, actorID); err != nil {
		return nil, err
	}

	return task, nil
}

// AddNote attaches a note to a task. Allowed for project admins and for
// testers assigned to the task, and only once the task is completed.
func (s *TaskService) AddNote(actorID, taskID uint64, note string) (*models.Task, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	role, err := s.roleIn(task.ProjectID, actorID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && (role != models.RoleTester || !isOwner(task.AssignedTo, actorID)) {
		return nil, ErrUnauthorized
	}

	if task.Status != models.TaskStatusCompleted {
		return nil, ErrNoteRequiresCompletion
	}

	task.Note = note
	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to add note: %w", err)
	}

	if err := s.touchActivity(task.ProjectID, actorID); err != nil {
		return nil, err
	}

	return task, nil
}

// UpdateTask updates a task's general fields. Allowed for project admins and
// for managers who created the task.
func (s *TaskService) UpdateTask(actorID, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	if err := s.requireManage(task, actorID); err != nil {
		return nil, err
	}

	if input.Title != nil && *input.Title != task.Title {
		taken, err := s.taskRepo.TitleExists(*input.Title, task.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check task title: %w", err)
		}
		if taken {
			return nil, ErrTaskTitleTaken
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		task.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		task.Priority = *input.Priority
	}
	if input.DueDate != nil {
		task.DueDate = *input.DueDate
	}
	if input.AssignedTo != nil {
		assigneeRole, err := s.roleIn(task.ProjectID, *input.AssignedTo)
		if err != nil {
			return nil, err
		}
		if assigneeRole != models.RoleTester && assigneeRole != models.RoleDeveloper {
			return nil, ErrAssigneeRoleInvalid
		}
		task.AssignedTo = input.AssignedTo
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if err := s.touchActivity(task.ProjectID, actorID); err != nil {
		return nil, err
	}

	return task, nil
}

// DeleteTask soft deletes a task. Allowed for project admins and for managers
// who created the task.
func (s *TaskService) DeleteTask(actorID, taskID uint64) error {
	task, err := s.findTask(taskID)
	if err != nil {
		return err
	}

	if err := s.requireManage(task, actorID); err != nil {
		return err
	}

	if err := s.taskRepo.SoftDelete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return s.touchActivity(task.ProjectID, actorID)
}

// ForceDeleteTask permanently removes a task. Same rule as DeleteTask; works
// on live and trashed tasks.
func (s *TaskService) ForceDeleteTask(actorID, taskID uint64) error {
	task, err := s.taskRepo.FindByIDWithTrashed(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.requireManage(task, actorID); err != nil {
		return err
	}

	if err := s.taskRepo.ForceDelete(taskID); err != nil {
		return fmt.Errorf("failed to permanently delete task: %w", err)
	}

	return s.touchActivity(task.ProjectID, actorID)
}

// RestoreTask restores a soft-deleted task. Same rule as DeleteTask.
func (s *TaskService) RestoreTask(actorID, taskID uint64) error {
	task, err := s.taskRepo.FindByIDOnlyTrashed(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.requireManage(task, actorID); err != nil {
		return err
	}

	if err := s.taskRepo.Restore(taskID); err != nil {
		return fmt.Errorf("failed to restore task: %w", err)
	}

	return s.touchActivity(task.ProjectID, actorID)
}

// FilterTasks returns the project's live tasks narrowed by the optional
// status and priority filters, AND-combined. Any project role may filter.
func (s *TaskService) FilterTasks(actorID, projectID uint64, input FilterTasksInput) ([]models.Task, error) {
	if _, err := s.findProject(projectID); err != nil {
		return nil, err
	}

	if err := s.requireRole(projectID, actorID, filterRoles...); err != nil {
		return nil, err
	}

	if input.Status != nil && !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}

	tasks, err := s.taskRepo.Filter(repository.TaskFilter{
		ProjectID: projectID,
		Status:    input.Status,
		Priority:  input.Priority,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to filter tasks: %w", err)
	}

	return tasks, nil
}

// ListTrashedTasks returns the soft-deleted tasks of a project. Admin role
// required.
func (s *TaskService) ListTrashedTasks(actorID, projectID uint64) ([]models.Task, error) {
	if _, err := s.findProject(projectID); err != nil {
		return nil, err
	}

	if err := s.requireRole(projectID, actorID, models.RoleAdmin); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListTrashedByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trashed tasks: %w", err)
	}

	return tasks, nil
}

// requireManage enforces the shared rule for update, delete, force-delete and
// restore: project admin, or a manager who created the task.
func (s *TaskService) requireManage(task *models.Task, actorID uint64) error {
	role, err := s.roleIn(task.ProjectID, actorID)
	if err != nil {
		return err
	}
	if role != models.RoleAdmin && (role != models.RoleManager || !isOwner(task.CreatedBy, actorID)) {
		return ErrUnauthorized
	}
	return nil
}

func (s *TaskService) findProject(projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

func (s *TaskService) findTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// touchActivity records the actor's write on their project membership. A
// no-op when the actor holds no membership.
func (s *TaskService) touchActivity(projectID, actorID uint64) error {
	if err := s.projectRepo.TouchMemberActivity(projectID, actorID, time.Now()); err != nil {
		return fmt.Errorf("failed to update member activity: %w", err)
	}
	return nil
}

func isOwner(id *uint64, actorID uint64) bool {
	return id != nil && *id == actorID
}
