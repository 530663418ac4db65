package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/taskhub/project-management-api/internal/models"
	"github.com/taskhub/project-management-api/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// TaskServiceTestSuite defines the test suite for TaskService
type TaskServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *TaskService
}

// SetupTest runs before each test
func (suite *TaskServiceTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Task{},
	)
	suite.Require().NoError(err)

	taskRepo := repository.NewTaskRepository(suite.db)
	projectRepo := repository.NewProjectRepository(suite.db)
	suite.service = NewTaskService(taskRepo, projectRepo)
}

// TearDownTest runs after each test
func (suite *TaskServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

// Helper functions to create test data
func (suite *TaskServiceTestSuite) createTestUser(email string) *models.User {
	user := &models.User{
		Name:         email,
		Email:        email,
		PasswordHash: "hashedpassword",
	}
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *TaskServiceTestSuite) createTestProject(name string) *models.Project {
	project := &models.Project{Name: name}
	suite.Require().NoError(suite.db.Create(project).Error)
	return project
}

func (suite *TaskServiceTestSuite) addMember(projectID, userID uint64, role models.Role) {
	member := &models.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	}
	suite.Require().NoError(suite.db.Create(member).Error)
}

func (suite *TaskServiceTestSuite) createTestTask(projectID uint64, title string, createdBy, assignedTo *uint64) *models.Task {
	task := &models.Task{
		ProjectID:  projectID,
		Title:      title,
		Status:     models.TaskStatusNew,
		Priority:   models.TaskPriorityMedium,
		DueDate:    time.Now().Add(72 * time.Hour),
		CreatedBy:  createdBy,
		AssignedTo: assignedTo,
	}
	suite.Require().NoError(suite.db.Create(task).Error)
	return task
}

func (suite *TaskServiceTestSuite) memberActivity(projectID, userID uint64) *time.Time {
	var member models.ProjectMember
	err := suite.db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&member).Error
	suite.Require().NoError(err)
	return member.LastActivity
}

func (suite *TaskServiceTestSuite) TestListTasksAsAdmin() {
	admin := suite.createTestUser("admin@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, admin.ID, models.RoleAdmin)
	suite.createTestTask(project.ID, "Write docs", nil, nil)
	suite.createTestTask(project.ID, "Review docs", nil, nil)

	tasks, err := suite.service.ListTasks(admin.ID, project.ID)

	suite.NoError(err)
	suite.Len(tasks, 2)
}

func (suite *TaskServiceTestSuite) TestListTasksAsCreatorWithoutAdminRole() {
	manager := suite.createTestUser("manager@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, manager.ID, models.RoleManager)
	suite.createTestTask(project.ID, "Write docs", &manager.ID, nil)

	tasks, err := suite.service.ListTasks(manager.ID, project.ID)

	suite.NoError(err)
	suite.Len(tasks, 1)
}

func (suite *TaskServiceTestSuite) TestListTasksDeniedForMemberWithoutCreatedTasks() {
	dev := suite.createTestUser("dev@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, dev.ID, models.RoleDeveloper)
	suite.createTestTask(project.ID, "Write docs", nil, nil)

	_, err := suite.service.ListTasks(dev.ID, project.ID)

	suite.ErrorIs(err, ErrUnauthorized)
}

func (suite *TaskServiceTestSuite) TestListTasksProjectNotFound() {
	admin := suite.createTestUser("admin@example.com")

	_, err := suite.service.ListTasks(admin.ID, 9999)

	suite.ErrorIs(err, ErrProjectNotFound)
}

func (suite *TaskServiceTestSuite) TestGetTaskVisibility() {
	admin := suite.createTestUser("admin@example.com")
	creator := suite.createTestUser("creator@example.com")
	assignee := suite.createTestUser("assignee@example.com")
	outsider := suite.createTestUser("outsider@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, admin.ID, models.RoleAdmin)
	suite.addMember(project.ID, creator.ID, models.RoleManager)
	suite.addMember(project.ID, assignee.ID, models.RoleDeveloper)
	suite.addMember(project.ID, outsider.ID, models.RoleTester)
	task := suite.createTestTask(project.ID, "Write docs", &creator.ID, &assignee.ID)

	for _, userID := range []uint64{admin.ID, creator.ID, assignee.ID} {
		got, err := suite.service.GetTask(userID, task.ID)
		suite.NoError(err)
		suite.Equal(task.ID, got.ID)
	}

	_, err := suite.service.GetTask(outsider.ID, task.ID)
	suite.ErrorIs(err, ErrTaskForbidden)
}

func (suite *TaskServiceTestSuite) TestCreateTaskAppliesDefaults() {
	admin := suite.createTestUser("admin@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, admin.ID, models.RoleAdmin)

	task, err := suite.service.CreateTask(admin.ID, project.ID, CreateTaskInput{
		Title:   "Write docs",
		DueDate: time.Now().Add(24 * time.Hour),
	})

	suite.NoError(err)
	suite.Equal(models.TaskStatusNew, task.Status)
	suite.Equal(models.TaskPriorityMedium, task.Priority)
	suite.NotNil(task.CreatedBy)
	suite.Equal(admin.ID, *task.CreatedBy)
}

func (suite *TaskServiceTestSuite) TestCreateTaskRejectsDuplicateTitle() {
	admin := suite.createTestUser("admin@example.com")
	project := suite.createTestProject("Apollo")
	other := suite.createTestProject("Borealis")
	suite.addMember(project.ID, admin.ID, models.RoleAdmin)
	suite.createTestTask(other.ID, "Write docs", nil, nil)

	// Titles are unique across live tasks in every project.
	_, err := suite.service.CreateTask(admin.ID, project.ID, CreateTaskInput{
		Title:   "Write docs",
		DueDate: time.Now().Add(24 * time.Hour),
	})

	suite.ErrorIs(err, ErrTaskTitleTaken)
}

func (suite *TaskServiceTestSuite) TestCreateTaskAllowsTitleOfDeletedTask() {
	admin := suite.createTestUser("admin@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, admin.ID, models.RoleAdmin)
	old := suite.createTestTask(project.ID, "Write docs", nil, nil)
	suite.Require().NoError(suite.db.Delete(old).Error)

	_, err := suite.service.CreateTask(admin.ID, project.ID, CreateTaskInput{
		Title:   "Write docs",
		DueDate: time.Now().Add(24 * time.Hour),
	})

	suite.NoError(err)
}

func (suite *TaskServiceTestSuite) TestCreateTaskValidatesAssigneeRole() {
	admin := suite.createTestUser("admin@example.com")
	manager := suite.createTestUser("manager@example.com")
	tester := suite.createTestUser("tester@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, admin.ID, models.RoleAdmin)
	suite.addMember(project.ID, manager.ID, models.RoleManager)
	suite.addMember(project.ID, tester.ID, models.RoleTester)

	_, err := suite.service.CreateTask(admin.ID, project.ID, CreateTaskInput{
		Title:      "Write docs",
		DueDate:    time.Now().Add(24 * time.Hour),
		AssignedTo: &manager.ID,
	})
	suite.ErrorIs(err, ErrAssigneeRoleInvalid)

	task, err := suite.service.CreateTask(admin.ID, project.ID, CreateTaskInput{
		Title:      "Write docs",
		DueDate:    time.Now().Add(24 * time.Hour),
		AssignedTo: &tester.ID,
	})
	suite.NoError(err)
	suite.Equal(tester.ID, *task.AssignedTo)
}

func (suite *TaskServiceTestSuite) TestCreateTaskTouchesMemberActivity() {
	admin := suite.createTestUser("admin@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, admin.ID, models.RoleAdmin)
	suite.Nil(suite.memberActivity(project.ID, admin.ID))

	_, err := suite.service.CreateTask(admin.ID, project.ID, CreateTaskInput{
		Title:   "Write docs",
		DueDate: time.Now().Add(24 * time.Hour),
	})

	suite.NoError(err)
	suite.NotNil(suite.memberActivity(project.ID, admin.ID))
}

func (suite *TaskServiceTestSuite) TestUpdateTaskStatusAsAssignedDeveloper() {
	dev := suite.createTestUser("dev@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, dev.ID, models.RoleDeveloper)
	task := suite.createTestTask(project.ID, "Write docs", nil, &dev.ID)

	updated, err := suite.service.UpdateTaskStatus(dev.ID, task.ID, models.TaskStatusInProgress)

	suite.NoError(err)
	suite.Equal(models.TaskStatusInProgress, updated.Status)
	suite.NotNil(suite.memberActivity(project.ID, dev.ID))
}

func (suite *TaskServiceTestSuite) TestUpdateTaskStatusDeniedForUnassignedDeveloper() {
	dev := suite.createTestUser("dev@example.com")
	other := suite.createTestUser("other@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, dev.ID, models.RoleDeveloper)
	suite.addMember(project.ID, other.ID, models.RoleDeveloper)
	task := suite.createTestTask(project.ID, "Write docs", nil, &other.ID)

	_, err := suite.service.UpdateTaskStatus(dev.ID, task.ID, models.TaskStatusInProgress)

	suite.ErrorIs(err, ErrUnauthorized)
}

func (suite *TaskServiceTestSuite) TestUpdateTaskStatusRejectedAfterDueDate() {
	admin := suite.createTestUser("admin@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, admin.ID, models.RoleAdmin)
	task := suite.createTestTask(project.ID, "Write docs", nil, nil)
	suite.Require().NoError(suite.db.Model(task).Update("due_date", time.Now().Add(-time.Hour)).Error)

	// The due date guard fires even for admins, after authorization passes.
	_, err := suite.service.UpdateTaskStatus(admin.ID, task.ID, models.TaskStatusCompleted)

	suite.ErrorIs(err, ErrDueDatePassed)
}

func (suite *TaskServiceTestSuite) TestUpdateTaskStatusAuthorizationBeforeDueDateGuard() {
	tester := suite.createTestUser("tester@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, tester.ID, models.RoleTester)
	task := suite.createTestTask(project.ID, "Write docs", nil, &tester.ID)
	suite.Require().NoError(suite.db.Model(task).Update("due_date", time.Now().Add(-time.Hour)).Error)

	_, err := suite.service.UpdateTaskStatus(tester.ID, task.ID, models.TaskStatusCompleted)

	suite.ErrorIs(err, ErrUnauthorized)
}

func (suite *TaskServiceTestSuite) TestAddNoteRequiresCompletedStatus() {
	tester := suite.createTestUser("tester@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, tester.ID, models.RoleTester)
	task := suite.createTestTask(project.ID, "Write docs", nil, &tester.ID)

	_, err := suite.service.AddNote(tester.ID, task.ID, "looks good")
	suite.ErrorIs(err, ErrNoteRequiresCompletion)

	suite.Require().NoError(suite.db.Model(task).Update("status", models.TaskStatusCompleted).Error)

	updated, err := suite.service.AddNote(tester.ID, task.ID, "looks good")
	suite.NoError(err)
	suite.Equal("looks good", updated.Note)
}

func (suite *TaskServiceTestSuite) TestAddNoteDeniedForAssignedDeveloper() {
	dev := suite.createTestUser("dev@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, dev.ID, models.RoleDeveloper)
	task := suite.createTestTask(project.ID, "Write docs", nil, &dev.ID)
	suite.Require().NoError(suite.db.Model(task).Update("status", models.TaskStatusCompleted).Error)

	_, err := suite.service.AddNote(dev.ID, task.ID, "looks good")

	suite.ErrorIs(err, ErrUnauthorized)
}

func (suite *TaskServiceTestSuite) TestUpdateTaskAsManagerCreator() {
	manager := suite.createTestUser("manager@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, manager.ID, models.RoleManager)
	task := suite.createTestTask(project.ID, "Write docs", &manager.ID, nil)

	newTitle := "Write better docs"
	updated, err := suite.service.UpdateTask(manager.ID, task.ID, UpdateTaskInput{Title: &newTitle})

	suite.NoError(err)
	suite.Equal(newTitle, updated.Title)
}

func (suite *TaskServiceTestSuite) TestUpdateTaskDeniedForManagerWhoIsNotCreator() {
	manager := suite.createTestUser("manager@example.com")
	creator := suite.createTestUser("creator@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, manager.ID, models.RoleManager)
	suite.addMember(project.ID, creator.ID, models.RoleManager)
	task := suite.createTestTask(project.ID, "Write docs", &creator.ID, nil)

	newTitle := "Write better docs"
	_, err := suite.service.UpdateTask(manager.ID, task.ID, UpdateTaskInput{Title: &newTitle})

	suite.ErrorIs(err, ErrUnauthorized)
}

func (suite *TaskServiceTestSuite) TestUpdateTaskKeepingOwnTitle() {
	admin := suite.createTestUser("admin@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, admin.ID, models.RoleAdmin)
	task := suite.createTestTask(project.ID, "Write docs", nil, nil)

	sameTitle := "Write docs"
	desc := "updated"
	_, err := suite.service.UpdateTask(admin.ID, task.ID, UpdateTaskInput{Title: &sameTitle, Description: &desc})

	suite.NoError(err)
}

func (suite *TaskServiceTestSuite) TestDeleteAndRestoreTask() {
	admin := suite.createTestUser("admin@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, admin.ID, models.RoleAdmin)
	task := suite.createTestTask(project.ID, "Write docs", nil, nil)

	suite.NoError(suite.service.DeleteTask(admin.ID, task.ID))

	_, err := suite.service.GetTask(admin.ID, task.ID)
	suite.ErrorIs(err, ErrTaskNotFound)

	suite.NoError(suite.service.RestoreTask(admin.ID, task.ID))

	got, err := suite.service.GetTask(admin.ID, task.ID)
	suite.NoError(err)
	suite.Equal(task.ID, got.ID)
}

func (suite *TaskServiceTestSuite) TestRestoreTaskRequiresTrashedTask() {
	admin := suite.createTestUser("admin@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, admin.ID, models.RoleAdmin)
	task := suite.createTestTask(project.ID, "Write docs", nil, nil)

	err := suite.service.RestoreTask(admin.ID, task.ID)

	suite.ErrorIs(err, ErrTaskNotFound)
}

func (suite *TaskServiceTestSuite) TestForceDeleteTaskIsPermanent() {
	admin := suite.createTestUser("admin@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, admin.ID, models.RoleAdmin)
	task := suite.createTestTask(project.ID, "Write docs", nil, nil)

	suite.NoError(suite.service.DeleteTask(admin.ID, task.ID))
	suite.NoError(suite.service.ForceDeleteTask(admin.ID, task.ID))

	var count int64
	suite.db.Unscoped().Model(&models.Task{}).Where("id = ?", task.ID).Count(&count)
	suite.Equal(int64(0), count)
}

func (suite *TaskServiceTestSuite) TestFilterTasks() {
	tester := suite.createTestUser("tester@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, tester.ID, models.RoleTester)

	high := suite.createTestTask(project.ID, "High new", nil, nil)
	suite.db.Model(high).Update("priority", models.TaskPriorityHigh)
	completed := suite.createTestTask(project.ID, "Medium completed", nil, nil)
	suite.db.Model(completed).Update("status", models.TaskStatusCompleted)
	highCompleted := suite.createTestTask(project.ID, "High completed", nil, nil)
	suite.db.Model(highCompleted).Updates(map[string]interface{}{
		"priority": models.TaskPriorityHigh,
		"status":   models.TaskStatusCompleted,
	})

	all, err := suite.service.FilterTasks(tester.ID, project.ID, FilterTasksInput{})
	suite.NoError(err)
	suite.Len(all, 3)

	status := models.TaskStatusCompleted
	byStatus, err := suite.service.FilterTasks(tester.ID, project.ID, FilterTasksInput{Status: &status})
	suite.NoError(err)
	suite.Len(byStatus, 2)

	priority := models.TaskPriorityHigh
	byBoth, err := suite.service.FilterTasks(tester.ID, project.ID, FilterTasksInput{Status: &status, Priority: &priority})
	suite.NoError(err)
	suite.Require().Len(byBoth, 1)
	suite.Equal("High completed", byBoth[0].Title)
}

func (suite *TaskServiceTestSuite) TestFilterTasksDeniedForNonMembers() {
	outsider := suite.createTestUser("outsider@example.com")
	project := suite.createTestProject("Apollo")

	_, err := suite.service.FilterTasks(outsider.ID, project.ID, FilterTasksInput{})

	suite.ErrorIs(err, ErrUnauthorized)
}

func (suite *TaskServiceTestSuite) TestFilterTasksRejectsInvalidStatus() {
	tester := suite.createTestUser("tester@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, tester.ID, models.RoleTester)

	bad := models.TaskStatus("archived")
	_, err := suite.service.FilterTasks(tester.ID, project.ID, FilterTasksInput{Status: &bad})

	suite.ErrorIs(err, ErrInvalidStatus)
}

func (suite *TaskServiceTestSuite) TestListTrashedTasksRequiresAdmin() {
	admin := suite.createTestUser("admin@example.com")
	manager := suite.createTestUser("manager@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, admin.ID, models.RoleAdmin)
	suite.addMember(project.ID, manager.ID, models.RoleManager)
	task := suite.createTestTask(project.ID, "Write docs", nil, nil)
	suite.Require().NoError(suite.db.Delete(task).Error)

	trashed, err := suite.service.ListTrashedTasks(admin.ID, project.ID)
	suite.NoError(err)
	suite.Len(trashed, 1)

	_, err = suite.service.ListTrashedTasks(manager.ID, project.ID)
	suite.ErrorIs(err, ErrUnauthorized)
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}
