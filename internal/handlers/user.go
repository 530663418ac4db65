package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhub/project-management-api/internal/dto"
	apierrors "github.com/taskhub/project-management-api/internal/errors"
	"github.com/taskhub/project-management-api/internal/models"
	"github.com/taskhub/project-management-api/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListProjectUsers returns a project's members
func (h *UserHandler) ListProjectUsers(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	members, err := h.userService.ListProjectUsers(actorID, projectID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": dto.ToProjectUserDTOs(members)})
}

// GetProjectUser returns a single member of a project
func (h *UserHandler) GetProjectUser(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	member, err := h.userService.GetProjectUser(actorID, projectID, targetID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectUserDTO(*member))
}

// CreateProjectUser creates a user and attaches them to the project
func (h *UserHandler) CreateProjectUser(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	type CreateUserRequest struct {
		Name     string      `json:"name" binding:"required"`
		Email    string      `json:"email" binding:"required,email"`
		Password string      `json:"password" binding:"required"`
		Role     models.Role `json:"role" binding:"required"`
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "")
		return
	}

	user, err := h.userService.CreateProjectUser(actorID, projectID, services.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// UpdateProjectUser updates a user's own fields
func (h *UserHandler) UpdateProjectUser(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	type UpdateUserRequest struct {
		Name     *string `json:"name"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "")
		return
	}

	user, err := h.userService.UpdateProjectUser(actorID, projectID, targetID, services.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// DeleteUser detaches a user from all projects and soft deletes them
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(actorID, targetID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// RestoreUser restores a soft-deleted user
func (h *UserHandler) RestoreUser(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.userService.RestoreUser(actorID, targetID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User restored successfully"})
}

// ForceDeleteUser permanently removes a soft-deleted user
func (h *UserHandler) ForceDeleteUser(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.userService.ForceDeleteUser(actorID, targetID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User permanently deleted"})
}

// AssignRole sets a user's role within a project
func (h *UserHandler) AssignRole(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	type AssignRoleRequest struct {
		Role              models.Role `json:"role" binding:"required"`
		ContributionHours int         `json:"contribution_hours"`
		LastActivity      *time.Time  `json:"last_activity"`
	}

	var req AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "")
		return
	}

	err := h.userService.AssignRole(actorID, projectID, targetID, services.AssignRoleInput{
		Role:              req.Role,
		ContributionHours: req.ContributionHours,
		LastActivity:      req.LastActivity,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Role assigned successfully"})
}

// ListUserTasks returns a user's tasks across their projects
func (h *UserHandler) ListUserTasks(c *gin.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}
	targetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	tasks, err := h.userService.ListUserTasks(targetID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": dto.ToTaskDTOs(tasks)})
}

// ListTrashedUsers returns soft-deleted users
func (h *UserHandler) ListTrashedUsers(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}

	users, err := h.userService.ListTrashedUsers(actorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	dtos := make([]dto.UserDTO, len(users))
	for i, u := range users {
		dtos[i] = dto.ToUserDTO(u)
	}

	c.JSON(http.StatusOK, gin.H{"users": dtos})
}
