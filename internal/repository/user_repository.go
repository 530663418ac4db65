package repository

import (
	"errors"
	"fmt"

	"github.com/taskhub/project-management-api/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrCreateUser is returned when creating a user fails inside the
	// create-with-membership transaction.
	ErrCreateUser = errors.New("user repository: create user failed")
	// ErrCreateMembership is returned when attaching the membership fails
	// inside the create-with-membership transaction.
	ErrCreateMembership = errors.New("user repository: create membership failed")
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// CreateWithMembership creates a user and their project membership atomically
func (r *GormUserRepository) CreateWithMembership(user *models.User, member *models.ProjectMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateUser, err)
		}

		member.UserID = user.ID

		if err := tx.Create(member).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateMembership, err)
		}

		return nil
	})
}

// FindByID finds a live user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDWithTrashed finds a user regardless of soft-delete state
func (r *GormUserRepository) FindByIDWithTrashed(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.Unscoped().First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDOnlyTrashed finds a soft-deleted user by ID
func (r *GormUserRepository) FindByIDOnlyTrashed(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.Unscoped().
		Where("deleted_at IS NOT NULL").
		First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a live user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates a user
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// SoftDeleteWithMemberships detaches the user from all projects and soft
// deletes the record in one transaction
func (r *GormUserRepository) SoftDeleteWithMemberships(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.User{}, id).Error
	})
}

// Restore restores a soft-deleted user
func (r *GormUserRepository) Restore(id uint64) error {
	return r.db.Unscoped().Model(&models.User{}).
		Where("id = ?", id).
		Update("deleted_at", nil).Error
}

// ForceDelete permanently removes a soft-deleted user
func (r *GormUserRepository) ForceDelete(id uint64) error {
	return r.db.Unscoped().Delete(&models.User{}, id).Error
}

// ListTrashed lists soft-deleted users
func (r *GormUserRepository) ListTrashed() ([]models.User, error) {
	var users []models.User
	if err := r.db.Unscoped().
		Where("deleted_at IS NOT NULL").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// IsAdminInAnyProject reports whether the user holds the admin role in at
// least one project
func (r *GormUserRepository) IsAdminInAnyProject(userID uint64) (bool, error) {
	var count int64
	err := r.db.Model(&models.ProjectMember{}).
		Where("user_id = ? AND role = ?", userID, models.RoleAdmin).
		Count(&count).Error
	return count > 0, err
}
