package repository

import (
	"github.com/taskhub/project-management-api/internal/models"
	"gorm.io/gorm"
)

// priorityRank orders tasks most-urgent first: high=1, medium=2, low=3.
// CASE keeps the expression portable across mysql, postgres and sqlite.
const priorityRank = "CASE priority WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END"

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a live task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// FindByIDWithTrashed finds a task regardless of soft-delete state
func (r *GormTaskRepository) FindByIDWithTrashed(id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.Unscoped().First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindByIDOnlyTrashed finds a soft-deleted task by ID
func (r *GormTaskRepository) FindByIDOnlyTrashed(id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.Unscoped().
		Where("deleted_at IS NOT NULL").
		First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByProject lists the live tasks of a project
func (r *GormTaskRepository) ListByProject(projectID uint64) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.Where("project_id = ?", projectID).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListTrashedByProject lists the soft-deleted tasks of a project
func (r *GormTaskRepository) ListTrashedByProject(projectID uint64) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.Unscoped().
		Where("project_id = ? AND deleted_at IS NOT NULL", projectID).
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListByProjects lists live tasks across multiple projects
func (r *GormTaskRepository) ListByProjects(projectIDs []uint64, preload ...string) ([]models.Task, error) {
	if len(projectIDs) == 0 {
		return []models.Task{}, nil
	}

	query := r.db.Where("project_id IN ?", projectIDs)
	for _, p := range preload {
		query = query.Preload(p)
	}

	var tasks []models.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Filter applies the optional predicates AND-combined over a project's live
// tasks
func (r *GormTaskRepository) Filter(filter TaskFilter) ([]models.Task, error) {
	query := r.db.Where("project_id = ?", filter.ProjectID)

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}

	var tasks []models.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// LatestByProject returns the most recently created live task
func (r *GormTaskRepository) LatestByProject(projectID uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.Where("project_id = ?", projectID).
		Order("created_at DESC, id DESC").
		Take(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// OldestByProject returns the earliest created live task
func (r *GormTaskRepository) OldestByProject(projectID uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Take(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// HighestPriorityByTitle returns the minimum-priority-rank live task whose
// title contains the given substring. Ties resolve to the first row in
// storage order.
func (r *GormTaskRepository) HighestPriorityByTitle(projectID uint64, titleSubstring string) (*models.Task, error) {
	var task models.Task
	if err := r.db.Where("project_id = ?", projectID).
		Where("title LIKE ?", "%"+titleSubstring+"%").
		Order(priorityRank + " ASC").
		Order("id ASC").
		Take(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// TitleExists reports whether a live task with the given title exists
// anywhere. Task titles are unique across projects, not per project.
func (r *GormTaskRepository) TitleExists(title string, excludeID uint64) (bool, error) {
	var count int64
	query := r.db.Model(&models.Task{}).Where("title = ?", title)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasCreatedInProject reports whether the user created at least one live task
// in the project
func (r *GormTaskRepository) HasCreatedInProject(projectID, userID uint64) (bool, error) {
	var count int64
	err := r.db.Model(&models.Task{}).
		Where("project_id = ? AND created_by = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}

// Update updates a task
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

// SoftDelete soft deletes a task
func (r *GormTaskRepository) SoftDelete(id uint64) error {
	return r.db.Delete(&models.Task{}, id).Error
}

// Restore restores a soft-deleted task
func (r *GormTaskRepository) Restore(id uint64) error {
	return r.db.Unscoped().Model(&models.Task{}).
		Where("id = ?", id).
		Update("deleted_at", nil).Error
}

// ForceDelete permanently removes a task
func (r *GormTaskRepository) ForceDelete(id uint64) error {
	return r.db.Unscoped().Delete(&models.Task{}, id).Error
}
