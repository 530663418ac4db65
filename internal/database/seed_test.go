package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/project-management-api/internal/config"
	"github.com/taskhub/project-management-api/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestSeedDefaultProjectAdminIsIdempotent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	SetDB(db)

	cfg := &config.Config{
		DefaultProjectAdminEmail:    "admin@example.com",
		DefaultProjectAdminPassword: "password",
	}

	require.NoError(t, SeedDefaultProjectAdmin(cfg))
	require.NoError(t, SeedDefaultProjectAdmin(cfg))

	var users []models.User
	require.NoError(t, db.Where("email = ?", cfg.DefaultProjectAdminEmail).Find(&users).Error)
	require.Len(t, users, 1)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[0].PasswordHash), []byte("password")))
}
