package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/taskhub/project-management-api/internal/auth"
	"github.com/taskhub/project-management-api/internal/config"
	"github.com/taskhub/project-management-api/internal/database"
	"github.com/taskhub/project-management-api/internal/handlers"
	"github.com/taskhub/project-management-api/internal/middleware"
	"github.com/taskhub/project-management-api/internal/repository"
	"github.com/taskhub/project-management-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.AddIndexes(database.GetDB()); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	// Ensure the designated project admin account exists
	if err := database.SeedDefaultProjectAdmin(cfg); err != nil {
		log.Fatalf("Failed to seed default project admin: %v", err)
	}

	jwtManager := auth.NewManager(cfg.JWTSecret)

	// Initialize repositories
	db := database.GetDB()
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, jwtManager)
	projectService := services.NewProjectService(projectRepo, taskRepo, userRepo, cfg)
	taskService := services.NewTaskService(taskRepo, projectRepo)
	userService := services.NewUserService(userRepo, projectRepo, taskRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	projectHandler := handlers.NewProjectHandler(projectService)
	taskHandler := handlers.NewTaskHandler(taskService)
	userHandler := handlers.NewUserHandler(userService)

	// Initialize Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Project Management API is running",
		})
	})

	requireAuth := middleware.RequireAuth(jwtManager)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/logout", requireAuth, authHandler.Logout)
			authRoutes.POST("/refresh", requireAuth, authHandler.Refresh)
			authRoutes.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		// Project routes (protected)
		projects := api.Group("/projects")
		projects.Use(requireAuth)
		{
			projects.GET("", projectHandler.ListProjects)
			projects.POST("", projectHandler.CreateProject)
			projects.GET("/soft-deleted", projectHandler.ListTrashedProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.PUT("/:id", projectHandler.UpdateProject)
			projects.DELETE("/:id", projectHandler.DeleteProject)
			projects.POST("/:id/restore", projectHandler.RestoreProject)
			projects.DELETE("/:id/force", projectHandler.ForceDeleteProject)

			// Membership management
			projects.POST("/:id/assign-user", projectHandler.AssignUser)
			projects.DELETE("/:id/remove-user/:user_id", projectHandler.RemoveUser)
			projects.POST("/:id/assign-role/:user_id", userHandler.AssignRole)

			// Project-scoped user administration
			projects.GET("/:id/users", userHandler.ListProjectUsers)
			projects.POST("/:id/users", userHandler.CreateProjectUser)
			projects.GET("/:id/users/:user_id", userHandler.GetProjectUser)
			projects.PUT("/:id/users/:user_id", userHandler.UpdateProjectUser)

			// Project-scoped task queries
			projects.GET("/:id/tasks", taskHandler.ListTasks)
			projects.POST("/:id/tasks", taskHandler.CreateTask)
			projects.GET("/:id/tasks/filter", taskHandler.FilterTasks)
			projects.GET("/:id/tasks/soft-deleted", taskHandler.ListTrashedTasks)
			projects.GET("/:id/latest-task", projectHandler.LatestTask)
			projects.GET("/:id/oldest-task", projectHandler.OldestTask)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("/highest-priority/:project_id/:title", projectHandler.HighestPriorityTask)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.PATCH("/:id/status", taskHandler.UpdateTaskStatus)
			tasks.PATCH("/:id/note", taskHandler.AddNote)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
			tasks.POST("/:id/restore", taskHandler.RestoreTask)
			tasks.DELETE("/:id/force", taskHandler.ForceDeleteTask)
		}

		// User routes (protected)
		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("/soft-deleted", userHandler.ListTrashedUsers)
			users.GET("/:id/tasks", userHandler.ListUserTasks)
			users.DELETE("/:id", userHandler.DeleteUser)
			users.POST("/:id/restore", userHandler.RestoreUser)
			users.DELETE("/:id/force", userHandler.ForceDeleteUser)
		}
	}

	// Start server
	addr := ":" + cfg.Port
	log.Printf("Server starting on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
