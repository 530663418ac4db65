package database

import (
	"fmt"

	"gorm.io/gorm"
)

// AddIndexes adds indexes used by the task filter and ordering queries
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Task indexes for filtering and ordering
		{"tasks", "idx_tasks_project_id_status", "project_id, status"},
		{"tasks", "idx_tasks_project_id_priority", "project_id, priority"},
		{"tasks", "idx_tasks_created_by", "created_by"},
		{"tasks", "idx_tasks_assigned_to", "assigned_to"},
		{"tasks", "idx_tasks_created_at", "created_at"},

		// Membership lookups back the role resolver
		{"project_members", "idx_project_members_user_id", "user_id"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
