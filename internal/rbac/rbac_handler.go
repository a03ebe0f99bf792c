package rbac

import (
	"net/http"

	"concord-desk/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("rbac.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) ListGrants(c *gin.Context) {
	grants, err := h.service.ListGrants(c.Request.Context())
	if err != nil {
		h.logger.Warn("rbac list grants failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list grants", nil)
		return
	}
	response.Success(c, http.StatusOK, grants, nil)
}

func (h *Handler) Reload(c *gin.Context) {
	if err := h.service.ReloadPolicy(c.Request.Context()); err != nil {
		h.logger.Warn("rbac reload failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to reload policy", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reloaded": true}, nil)
}
