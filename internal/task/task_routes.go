package task

import (
	"concord-desk/internal/middleware"
	"concord-desk/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	actor gin.HandlerFunc,
) {
	tasks := r.Group("/tasks")
	tasks.Use(actor)
	{
		tasks.POST("/sessions", middleware.RBACAuthorize(rbacService, "task", "manage"), handler.OpenSession)
		tasks.PUT("/:id/assignees", middleware.RBACAuthorize(rbacService, "task", "manage"), handler.SetAssignees)
		tasks.PUT("/:id/details", middleware.RBACAuthorize(rbacService, "task", "manage"), handler.SetDetails)
		tasks.POST("/:id/close", middleware.RBACAuthorize(rbacService, "task", "manage"), handler.Close)
		tasks.POST("/:id/remind", middleware.RBACAuthorize(rbacService, "task", "manage"), handler.Remind)

		tasks.POST("/:id/confirm", middleware.RBACAuthorize(rbacService, "task", "read"), handler.Confirm)
		tasks.POST("/:id/complete", middleware.RBACAuthorize(rbacService, "task", "read"), handler.MarkComplete)

		tasks.GET("/:id", middleware.RBACAuthorize(rbacService, "task", "read"), handler.GetByID)
		tasks.GET("/feed", middleware.RBACAuthorize(rbacService, "task", "read"), handler.Feed)
		tasks.POST("/feed/delivered", middleware.RBACAuthorize(rbacService, "task", "read"), handler.RegisterFeedDelivery)
	}
}
