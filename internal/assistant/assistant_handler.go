package assistant

import (
	"net/http"

	"leavehub/internal/shared/apperror"
	"leavehub/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("assistant.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("assistant.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("assistant request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) GetGrounding(c *gin.Context) {
	employeeID := c.Param("employeeID")
	h.logger.Debug("http get grounding", zap.String("employee_id", employeeID))

	resp, err := h.service.GetGrounding(
		c.Request.Context(),
		c.GetString("employee_id"),
		c.GetString("role"),
		employeeID,
	)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}
