package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/taskhub/project-management-api/internal/auth"
	"github.com/taskhub/project-management-api/internal/middleware"
	"github.com/taskhub/project-management-api/internal/models"
	"github.com/taskhub/project-management-api/internal/repository"
	"github.com/taskhub/project-management-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// TaskHandlerTestSuite defines the test suite for TaskHandler
type TaskHandlerTestSuite struct {
	suite.Suite
	db         *gorm.DB
	jwtManager *auth.Manager
	router     *gin.Engine
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	var err error

	// Create in-memory SQLite database
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	// Run migrations
	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Task{},
	)
	suite.Require().NoError(err)

	taskRepo := repository.NewTaskRepository(suite.db)
	projectRepo := repository.NewProjectRepository(suite.db)
	taskService := services.NewTaskService(taskRepo, projectRepo)
	handler := NewTaskHandler(taskService)

	suite.jwtManager = auth.NewManager("test-secret")

	// Set Gin to test mode
	gin.SetMode(gin.TestMode)

	// Create router with the routes under test
	suite.router = gin.New()
	authed := suite.router.Group("/api")
	authed.Use(middleware.RequireAuth(suite.jwtManager))
	authed.GET("/projects/:id/tasks", handler.ListTasks)
	authed.POST("/projects/:id/tasks", handler.CreateTask)
	authed.GET("/tasks/:id", handler.GetTask)
	authed.PATCH("/tasks/:id/status", handler.UpdateTaskStatus)
	authed.PATCH("/tasks/:id/note", handler.AddNote)
}

// TearDownTest runs after each test
func (suite *TaskHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

// Helper functions to create test data
func (suite *TaskHandlerTestSuite) createTestUser(email string) *models.User {
	user := &models.User{
		Name:         email,
		Email:        email,
		PasswordHash: "hashedpassword",
	}
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *TaskHandlerTestSuite) createTestProject(name string) *models.Project {
	project := &models.Project{Name: name}
	suite.Require().NoError(suite.db.Create(project).Error)
	return project
}

func (suite *TaskHandlerTestSuite) addMember(projectID, userID uint64, role models.Role) {
	member := &models.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	}
	suite.Require().NoError(suite.db.Create(member).Error)
}

func (suite *TaskHandlerTestSuite) createTestTask(projectID uint64, title string, assignedTo *uint64) *models.Task {
	task := &models.Task{
		ProjectID:  projectID,
		Title:      title,
		Status:     models.TaskStatusNew,
		Priority:   models.TaskPriorityMedium,
		DueDate:    time.Now().Add(72 * time.Hour),
		AssignedTo: assignedTo,
	}
	suite.Require().NoError(suite.db.Create(task).Error)
	return task
}

// request performs an authenticated JSON request as the given user
func (suite *TaskHandlerTestSuite) request(user *models.User, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		token, err := suite.jwtManager.GenerateToken(user.ID, user.Email)
		suite.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *TaskHandlerTestSuite) TestRequestWithoutTokenIsRejected() {
	w := suite.request(nil, http.MethodGet, "/api/tasks/1", nil)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *TaskHandlerTestSuite) TestCreateTask() {
	admin := suite.createTestUser("admin@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, admin.ID, models.RoleAdmin)

	w := suite.request(admin, http.MethodPost, fmt.Sprintf("/api/projects/%d/tasks", project.ID), gin.H{
		"title":    "Write docs",
		"due_date": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})

	suite.Equal(http.StatusCreated, w.Code)

	var resp map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("Write docs", resp["title"])
	suite.Equal("new", resp["status"])
	suite.Equal("medium", resp["priority"])
}

func (suite *TaskHandlerTestSuite) TestCreateTaskDuplicateTitle() {
	admin := suite.createTestUser("admin@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, admin.ID, models.RoleAdmin)
	suite.createTestTask(project.ID, "Write docs", nil)

	w := suite.request(admin, http.MethodPost, fmt.Sprintf("/api/projects/%d/tasks", project.ID), gin.H{
		"title":    "Write docs",
		"due_date": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *TaskHandlerTestSuite) TestCreateTaskMissingDueDate() {
	admin := suite.createTestUser("admin@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, admin.ID, models.RoleAdmin)

	w := suite.request(admin, http.MethodPost, fmt.Sprintf("/api/projects/%d/tasks", project.ID), gin.H{
		"title": "Write docs",
	})

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestGetTaskForbiddenForBystander() {
	tester := suite.createTestUser("tester@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, tester.ID, models.RoleTester)
	task := suite.createTestTask(project.ID, "Write docs", nil)

	w := suite.request(tester, http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), nil)

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *TaskHandlerTestSuite) TestUpdateTaskStatusPastDueDate() {
	admin := suite.createTestUser("admin@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, admin.ID, models.RoleAdmin)
	task := suite.createTestTask(project.ID, "Write docs", nil)
	suite.Require().NoError(suite.db.Model(task).Update("due_date", time.Now().Add(-time.Hour)).Error)

	w := suite.request(admin, http.MethodPatch, fmt.Sprintf("/api/tasks/%d/status", task.ID), gin.H{
		"status": "completed",
	})

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *TaskHandlerTestSuite) TestAddNoteBeforeCompletion() {
	tester := suite.createTestUser("tester@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, tester.ID, models.RoleTester)
	task := suite.createTestTask(project.ID, "Write docs", &tester.ID)

	w := suite.request(tester, http.MethodPatch, fmt.Sprintf("/api/tasks/%d/note", task.ID), gin.H{
		"note": "looks good",
	})

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *TaskHandlerTestSuite) TestListTasksPagination() {
	admin := suite.createTestUser("admin@example.com")
	project := suite.createTestProject("Apollo")
	suite.addMember(project.ID, admin.ID, models.RoleAdmin)
	for i := 0; i < 3; i++ {
		suite.createTestTask(project.ID, fmt.Sprintf("Task %d", i), nil)
	}

	w := suite.request(admin, http.MethodGet, fmt.Sprintf("/api/projects/%d/tasks?page=1&limit=2", project.ID), nil)

	suite.Equal(http.StatusOK, w.Code)

	var resp struct {
		Tasks      []map[string]interface{} `json:"tasks"`
		Page       int                      `json:"page"`
		Limit      int                      `json:"limit"`
		TotalCount int64                    `json:"total_count"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Tasks, 2)
	suite.Equal(int64(3), resp.TotalCount)
}

func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
