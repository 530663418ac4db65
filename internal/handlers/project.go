package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskhub/project-management-api/internal/dto"
	apierrors "github.com/taskhub/project-management-api/internal/errors"
	"github.com/taskhub/project-management-api/internal/middleware"
	"github.com/taskhub/project-management-api/internal/models"
	"github.com/taskhub/project-management-api/internal/services"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// parseIDParam reads a numeric URL parameter
func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// requireActor reads the authenticated user ID from context
func requireActor(c *gin.Context) (uint64, bool) {
	actorID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return 0, false
	}
	return actorID, true
}

// ListProjects returns the projects where the actor is admin
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}

	projects, err := h.projectService.ListAuthorizedProjects(actorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": dto.ToProjectDTOs(projects)})
}

// ListTrashedProjects returns soft-deleted projects where the actor was admin
func (h *ProjectHandler) ListTrashedProjects(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}

	projects, err := h.projectService.ListTrashedProjects(actorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": dto.ToProjectDTOs(projects)})
}

// GetProject returns a single project with its members
func (h *ProjectHandler) GetProject(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(actorID, projectID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// CreateProject creates a new project
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}

	type CreateProjectRequest struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "")
		return
	}

	project, err := h.projectService.CreateProject(actorID, services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// UpdateProject updates a project's name and description
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	type UpdateProjectRequest struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "")
		return
	}

	project, err := h.projectService.UpdateProject(actorID, projectID, services.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// DeleteProject soft deletes a project and its tasks
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(actorID, projectID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

// RestoreProject restores a trashed project and its cascade-deleted tasks
func (h *ProjectHandler) RestoreProject(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.projectService.RestoreProject(actorID, projectID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project restored successfully"})
}

// ForceDeleteProject permanently removes a project and its tasks
func (h *ProjectHandler) ForceDeleteProject(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.projectService.ForceDeleteProject(actorID, projectID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project permanently deleted"})
}

// AssignUser attaches a user to the project with a role
func (h *ProjectHandler) AssignUser(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	type AssignUserRequest struct {
		UserID            uint64      `json:"user_id" binding:"required"`
		Role              models.Role `json:"role" binding:"required"`
		ContributionHours int         `json:"contribution_hours"`
	}

	var req AssignUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "")
		return
	}

	err := h.projectService.AssignUser(actorID, projectID, services.AssignUserInput{
		UserID:            req.UserID,
		Role:              req.Role,
		ContributionHours: req.ContributionHours,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User assigned successfully"})
}

// RemoveUser detaches a user from the project
func (h *ProjectHandler) RemoveUser(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	if err := h.projectService.RemoveUser(actorID, projectID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User removed successfully"})
}

// LatestTask returns the most recently created task of the project
func (h *ProjectHandler) LatestTask(c *gin.Context) {
	h.boundaryTask(c, h.projectService.LatestTask)
}

// OldestTask returns the earliest created task of the project
func (h *ProjectHandler) OldestTask(c *gin.Context) {
	h.boundaryTask(c, h.projectService.OldestTask)
}

func (h *ProjectHandler) boundaryTask(c *gin.Context, lookup func(uint64, uint64) (*models.Task, error)) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	task, err := lookup(actorID, projectID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// HighestPriorityTask returns the most urgent task matching a title substring
func (h *ProjectHandler) HighestPriorityTask(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "project_id")
	if !ok {
		return
	}

	task, err := h.projectService.HighestPriorityTask(actorID, projectID, c.Param("title"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": dto.ToTaskDTO(*task)})
}
