package leave

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
	leaves := r.Group("/leaves")
	leaves.Use(actor)
	{
		leaves.POST("/full-day", middleware.RBACAuthorize(rbacService, "leave", "create"), handler.SubmitFullDay)
		leaves.POST("/half-day", middleware.RBACAuthorize(rbacService, "leave", "create"), handler.SubmitHalfDay)
		leaves.POST("/off-duty", middleware.RBACAuthorize(rbacService, "leave", "create"), handler.SubmitOffDuty)

		leaves.POST("/:id/accept", middleware.RBACAuthorize(rbacService, "leave", "review"), handler.Accept)
		leaves.POST("/:id/decline", middleware.RBACAuthorize(rbacService, "leave", "review"), handler.Decline)
		leaves.POST("/:id/withdraw", middleware.RBACAuthorize(rbacService, "leave", "withdraw"), handler.Withdraw)
		leaves.POST("/:id/cancel", middleware.RBACAuthorize(rbacService, "leave", "withdraw"), handler.Cancel)

		leaves.GET("", middleware.RBACAuthorize(rbacService, "leave", "review"), handler.GetAll)
		leaves.GET("/mine", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.Mine)
		leaves.GET("/:id", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetByID)

		leaves.GET("/balances/mine", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.MyBalance)
		leaves.GET("/balances", middleware.RBACAuthorize(rbacService, "leave", "review"), handler.AllBalances)

		leaves.GET("/tickets/open", middleware.RBACAuthorize(rbacService, "leave", "review"), handler.OpenTickets)
		leaves.PUT("/tickets/:ticketID/message", middleware.RBACAuthorize(rbacService, "leave", "review"), handler.AttachTicketMessage)

		leaves.GET("/export", middleware.RBACAuthorize(rbacService, "leave", "export"), handler.ExportMonth)
	}
}
