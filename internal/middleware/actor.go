package middleware

import (
	"context"
	"net/http"

	"concord-desk/internal/shared/response"

	"github.com/gin-gonic/gin"
)

const (
	ContextMemberID    = "member_id"
	ContextEmployeeID  = "employee_id"
	ContextDisplayName = "display_name"
	ContextActorRoles  = "actor_roles"
)

// Actor is the resolved identity behind a gateway request.
type Actor struct {
	EmployeeID  string
	MemberID    string
	DisplayName string
	Roles       []string
}

// ActorResolver is a local interface so this package does not depend on the
// employee module. The registry wires an adapter over the employee service.
type ActorResolver interface {
	ResolveActor(ctx context.Context, memberID string) (*Actor, error)
}

// ActorMiddleware trusts the gateway's identity headers. The gateway sits on
// the chat platform's session, so requests arriving here are already
// authenticated; this only translates headers into request context.
func ActorMiddleware(resolver ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		memberID := c.GetHeader("X-Member-ID")
		if memberID == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity", nil)
			c.Abort()
			return
		}

		actor, err := resolver.ResolveActor(c.Request.Context(), memberID)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "UNKNOWN_ACTOR", "actor is not a provisioned member", nil)
			c.Abort()
			return
		}

		c.Set(ContextMemberID, actor.MemberID)
		c.Set(ContextEmployeeID, actor.EmployeeID)
		c.Set(ContextDisplayName, actor.DisplayName)
		c.Set(ContextActorRoles, actor.Roles)
		c.Next()
	}
}

// ActorRoles reads the resolved roles back out of the gin context.
func ActorRoles(c *gin.Context) []string {
	v, ok := c.Get(ContextActorRoles)
	if !ok {
		return nil
	}
	roles, _ := v.([]string)
	return roles
}
