package employee

import (
	"leavehub/internal/middleware"
	"leavehub/internal/rbac"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	logger *zap.Logger,
) {
	employees := r.Group("/employees")
	employees.Use(middleware.AuthMiddleware())
	employees.Use(middleware.ContextLogger(logger))
	{
		employees.GET("",
			middleware.RateLimitByActor(3, 10),
			middleware.RBACAuthorize(rbacService, "employee", "list"),
			handler.GetAll,
		)

		employees.GET("/:id",
			middleware.RateLimitByActor(3, 10),
			middleware.RBACAuthorize(rbacService, "employee", "read"),
			handler.GetById,
		)

		employees.GET("/:id/balances",
			middleware.RateLimitByActor(3, 10),
			middleware.RBACAuthorize(rbacService, "employee", "read"),
			handler.GetBalances,
		)

		employees.POST("",
			middleware.RateLimitByActor(0.1, 1),
			middleware.RBACAuthorize(rbacService, "employee", "create"),
			handler.Create,
		)
	}
}
