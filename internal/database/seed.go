package database

import (
	"errors"
	"fmt"
	"log"

	"github.com/taskhub/project-management-api/internal/config"
	"github.com/taskhub/project-management-api/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedDefaultProjectAdmin ensures the designated project admin identity
// exists. Every newly created project is administered by this user, so it
// must be present before the API starts taking requests. Idempotent.
func SeedDefaultProjectAdmin(cfg *config.Config) error {
	var user models.User
	err := DB.Where("email = ?", cfg.DefaultProjectAdminEmail).First(&user).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up default project admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.DefaultProjectAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash default admin password: %w", err)
	}

	user = models.User{
		Name:         "Project Admin",
		Email:        cfg.DefaultProjectAdminEmail,
		PasswordHash: string(hash),
	}
	if err := DB.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to seed default project admin: %w", err)
	}

	log.Printf("Seeded default project admin %s", cfg.DefaultProjectAdminEmail)
	return nil
}
