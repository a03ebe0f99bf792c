package employee

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
	employees := r.Group("/employees")
	employees.Use(actor)
	{
		employees.GET("", middleware.RBACAuthorize(rbacService, "employee", "read"), handler.GetAll)
		employees.GET("/:memberID", middleware.RBACAuthorize(rbacService, "employee", "read"), handler.GetByMemberID)
		employees.POST("", middleware.RBACAuthorize(rbacService, "employee", "manage"), handler.Provision)
		employees.DELETE("/:memberID", middleware.RBACAuthorize(rbacService, "employee", "manage"), handler.Revoke)
		employees.PUT("/:memberID/roles", middleware.RBACAuthorize(rbacService, "employee", "manage"), handler.UpdateRoles)
		employees.PUT("/:memberID/relay-channel", middleware.RBACAuthorize(rbacService, "employee", "manage"), handler.SetRelayChannel)
	}
}
