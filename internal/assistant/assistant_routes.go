package assistant

import (
	"leavehub/internal/middleware"
	"leavehub/internal/rbac"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service, logger *zap.Logger) {
	assistant := r.Group("/assistant")
	assistant.Use(middleware.AuthMiddleware())
	assistant.Use(middleware.ContextLogger(logger))
	{
		assistant.GET("/grounding/:employeeID",
			middleware.RateLimitByActor(3, 10),
			middleware.RBACAuthorize(rbacService, "assistant", "read"),
			handler.GetGrounding,
		)
	}
}
