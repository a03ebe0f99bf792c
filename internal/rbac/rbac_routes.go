package rbac

import (
	"concord-desk/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, service Service, actor gin.HandlerFunc) {
	grants := r.Group("/rbac")
	grants.Use(actor)
	{
		grants.GET("/grants", middleware.RBACAuthorize(service, "rbac", "manage"), handler.ListGrants)
		grants.POST("/reload", middleware.RBACAuthorize(service, "rbac", "manage"), handler.Reload)
	}
}
