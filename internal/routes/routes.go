package routes

import (
	"github.com/gin-gonic/gin"

	"taskhub/internal/authz"
	"taskhub/internal/handlers"
	"taskhub/internal/middleware"
	"taskhub/internal/services"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	Task         *handlers.TaskHandler
	Notification *handlers.NotificationHandler
	Health       *handlers.HealthHandler
}

func SetupRoutes(r *gin.Engine, gate services.CredentialGate, h Handlers) *gin.Engine {
	// ---- public
	r.GET("/", middleware.OptionalAuth(gate), h.Health.Banner)
	r.GET("/healthz", h.Health.Health)

	api := r.Group("/api")
	auth := middleware.AuthMiddleware(gate)
	adminOnly := middleware.RequireRoles(authz.RoleAdmin)

	// USERS
	users := api.Group("/users")
	{
		users.POST("/register", h.Auth.Register)
		users.POST("/login", h.Auth.Login)
		users.POST("/forgot_password", h.Auth.ForgotPassword)
		users.POST("/reset_password", h.Auth.ResetPassword)
		users.GET("/github", h.Auth.GitHubLogin)
		users.GET("/github/callback", h.Auth.GitHubCallback)

		me := users.Group("", auth)
		me.GET("/profile", h.User.GetProfile)
		me.PUT("/profile", h.User.UpdateProfile)
		me.PUT("/change-password", h.User.ChangePassword)

		admin := users.Group("", auth, adminOnly)
		admin.GET("", h.User.List)
		admin.GET("/:id", h.User.GetByID)
		admin.PUT("/:id", h.User.Update)
		admin.DELETE("/:id", h.User.Delete)
		admin.PATCH("/:id/toggle-status", h.User.ToggleStatus)
	}

	// TASKS
	tasks := api.Group("/tasks", auth)
	{
		tasks.GET("/statistics", h.Task.Statistics)
		tasks.GET("/statistics/report", h.Task.StatisticsReport)
		tasks.GET("/my-tasks", h.Task.MyTasks)
		tasks.POST("", h.Task.Create)
		tasks.GET("", h.Task.List)
		tasks.GET("/:id", h.Task.GetByID)
		tasks.PUT("/:id", h.Task.Update)
		tasks.DELETE("/:id", h.Task.Delete)
		tasks.PATCH("/:id/status", h.Task.UpdateStatus)
		tasks.PATCH("/:id/assign", adminOnly, h.Task.Assign)
	}

	// NOTIFICATIONS (Admin)
	notifications := api.Group("/notifications", auth, adminOnly)
	{
		notifications.GET("", h.Notification.List)
		notifications.DELETE("/user/:id", h.Notification.DeleteByUser)
	}

	return r
}
