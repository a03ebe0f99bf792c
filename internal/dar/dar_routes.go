package dar

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
	dars := r.Group("/dar")
	dars.Use(actor)
	{
		dars.POST("/submissions", middleware.RBACAuthorize(rbacService, "dar", "submit"), handler.MarkSubmitted)
		dars.GET("/submissions", middleware.RBACAuthorize(rbacService, "dar", "sweep"), handler.Submitted)
		dars.POST("/sweep", middleware.RBACAuthorize(rbacService, "dar", "sweep"), handler.Sweep)
	}
}
