package repository

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/project-management-api/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (TaskRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return NewTaskRepository(db), mock
}

func TestHighestPriorityByTitleOrdersByPriorityRank(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(priorityRank+" ASC,id ASC")).
		WithArgs(uint64(1), "%release%", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "title", "status", "priority"}).
			AddRow(3, 1, "release step two", "new", "high"))

	task, err := repo.HighestPriorityByTitle(1, "release")

	assert.NoError(t, err)
	assert.Equal(t, uint64(3), task.ID)
	assert.Equal(t, models.TaskPriorityHigh, task.Priority)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterCombinesPredicates(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("project_id = ? AND status = ? AND priority = ?")).
		WithArgs(uint64(1), "completed", "high").
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "title", "status", "priority"}).
			AddRow(5, 1, "High completed", "completed", "high"))

	status := models.TaskStatusCompleted
	priority := models.TaskPriorityHigh
	tasks, err := repo.Filter(TaskFilter{ProjectID: 1, Status: &status, Priority: &priority})

	assert.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "High completed", tasks[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterOmitsAbsentPredicates(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("project_id = ? AND `tasks`.`deleted_at` IS NULL")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "title"}))

	tasks, err := repo.Filter(TaskFilter{ProjectID: 1})

	assert.NoError(t, err)
	assert.Empty(t, tasks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTitleExistsExcludesGivenID(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("title = ? AND id <> ?")).
		WithArgs("Write docs", uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	taken, err := repo.TitleExists("Write docs", 7)

	assert.NoError(t, err)
	assert.True(t, taken)
	assert.NoError(t, mock.ExpectationsWereMet())
}
