package repository

import (
	"time"

	"github.com/taskhub/project-management-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a new project
func (r *GormProjectRepository) Create(project *models.Project) error {
	return r.db.Create(project).Error
}

// FindByID finds a live project by ID with optional preloading
func (r *GormProjectRepository) FindByID(id uint64, preload ...string) (*models.Project, error) {
	var project models.Project
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&project, id).Error; err != nil {
		return nil, err
	}

	return &project, nil
}

// FindByIDWithTrashed finds a project regardless of soft-delete state
func (r *GormProjectRepository) FindByIDWithTrashed(id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.Unscoped().First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// ListTrashed retrieves soft-deleted projects
func (r *GormProjectRepository) ListTrashed() ([]models.Project, error) {
	var projects []models.Project
	if err := r.db.Unscoped().
		Where("deleted_at IS NOT NULL").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// NameExists reports whether a live project with the given name exists
func (r *GormProjectRepository) NameExists(name string, excludeID uint64) (bool, error) {
	var count int64
	query := r.db.Model(&models.Project{}).Where("name = ?", name)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update updates a project
func (r *GormProjectRepository) Update(project *models.Project) error {
	return r.db.Save(project).Error
}

// SoftDeleteWithTasks soft deletes a project and its live tasks in one
// transaction. Tasks are stamped with the project's deletion time so a later
// restore can tell cascade-deleted tasks apart from independently deleted
// ones.
func (r *GormProjectRepository) SoftDeleteWithTasks(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		if err := tx.Model(&models.Task{}).
			Where("project_id = ?", id).
			Update("deleted_at", now).Error; err != nil {
			return err
		}

		return tx.Model(&models.Project{}).
			Where("id = ?", id).
			Update("deleted_at", now).Error
	})
}

// RestoreWithTasks restores a trashed project and exactly the tasks carrying
// the cascade stamp
func (r *GormProjectRepository) RestoreWithTasks(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Unscoped().First(&project, id).Error; err != nil {
			return err
		}
		if !project.DeletedAt.Valid {
			return nil
		}

		if err := tx.Unscoped().Model(&models.Task{}).
			Where("project_id = ? AND deleted_at = ?", id, project.DeletedAt.Time).
			Update("deleted_at", nil).Error; err != nil {
			return err
		}

		return tx.Unscoped().Model(&models.Project{}).
			Where("id = ?", id).
			Update("deleted_at", nil).Error
	})
}

// ForceDeleteWithTasks permanently removes a project, its tasks and its
// memberships in one transaction
func (r *GormProjectRepository) ForceDeleteWithTasks(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}

		return tx.Unscoped().Delete(&models.Project{}, id).Error
	})
}

// UpsertMember attaches a member or updates the existing membership row.
// A (project, user) pair has at most one row; re-assigning a role never
// detaches.
func (r *GormProjectRepository) UpsertMember(member *models.ProjectMember) error {
	return r.db.
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "project_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"role", "contribution_hours", "last_activity",
			}),
		}).
		Create(member).Error
}

// RemoveMember detaches a member from a project
func (r *GormProjectRepository) RemoveMember(projectID, userID uint64) error {
	return r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectMember{}).Error
}

// FindMember finds a specific membership row
func (r *GormProjectRepository) FindMember(projectID, userID uint64) (*models.ProjectMember, error) {
	var member models.ProjectMember
	if err := r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers lists all members of a project
func (r *GormProjectRepository) ListMembers(projectID uint64) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	if err := r.db.Preload("User").
		Where("project_id = ?", projectID).
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListMembershipsByUser lists all memberships held by a user
func (r *GormProjectRepository) ListMembershipsByUser(userID uint64) ([]models.ProjectMember, error) {
	var memberships []models.ProjectMember
	if err := r.db.Preload("Project").
		Where("user_id = ?", userID).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// TouchMemberActivity sets a member's last_activity
func (r *GormProjectRepository) TouchMemberActivity(projectID, userID uint64, at time.Time) error {
	return r.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Update("last_activity", at).Error
}
