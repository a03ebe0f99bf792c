package dar

import (
	"net/http"
	"time"

	"concord-desk/internal/middleware"
	"concord-desk/internal/shared/apperror"
	"concord-desk/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("dar.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("dar.handler")
	}
	return &Handler{service: service, logger: l}
}

func getActor(c *gin.Context) Actor {
	return Actor{
		EmployeeID:  c.GetString(middleware.ContextEmployeeID),
		MemberID:    c.GetString(middleware.ContextMemberID),
		DisplayName: c.GetString(middleware.ContextDisplayName),
		Roles:       middleware.ActorRoles(c),
	}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("dar request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) MarkSubmitted(c *gin.Context) {
	resp, err := h.service.MarkSubmitted(c.Request.Context(), getActor(c))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) Submitted(c *gin.Context) {
	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(dateKeyLayout, raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "date must be DD-MM-YYYY", nil)
			return
		}
		day = parsed
	}

	resp, err := h.service.Submitted(c.Request.Context(), day)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Sweep(c *gin.Context) {
	names, err := h.service.Sweep(c.Request.Context(), time.Now())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"submitted": names}, nil)
}
