package leave

import (
	"leavehub/internal/middleware"
	"leavehub/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	rdb *redis.Client,
	logger *zap.Logger,
) {
	leaves := r.Group("/leaves")
	leaves.Use(middleware.AuthMiddleware())
	leaves.Use(middleware.ContextLogger(logger))
	{
		leaves.GET("",
			middleware.RateLimitByActor(3, 10),
			middleware.RBACAuthorize(rbacService, "leave", "read"),
			handler.GetAll,
		)

		leaves.GET("/:id",
			middleware.RateLimitByActor(3, 10),
			middleware.RBACAuthorize(rbacService, "leave", "read"),
			handler.GetById,
		)

		leaves.GET("/:id/effects",
			middleware.RateLimitByActor(3, 10),
			middleware.RBACAuthorize(rbacService, "leave", "read"),
			handler.ListEffects,
		)

		leaves.POST("",
			middleware.RateLimitByActor(0.5, 3),
			middleware.Idempotency(rdb),
			middleware.RBACAuthorize(rbacService, "leave", "create"),
			handler.Create,
		)

		leaves.POST("/:id/submit",
			middleware.RateLimitByActor(0.5, 3),
			middleware.Idempotency(rdb),
			middleware.RBACAuthorize(rbacService, "leave", "submit"),
			handler.Submit,
		)

		leaves.POST("/:id/approve",
			middleware.RateLimitByActor(1, 5),
			middleware.Idempotency(rdb),
			middleware.RBACAuthorize(rbacService, "leave", "approve"),
			handler.Approve,
		)

		leaves.POST("/:id/reject",
			middleware.RateLimitByActor(1, 5),
			middleware.Idempotency(rdb),
			middleware.RBACAuthorize(rbacService, "leave", "approve"),
			handler.Reject,
		)

		leaves.POST("/:id/withdraw",
			middleware.RateLimitByActor(1, 5),
			middleware.Idempotency(rdb),
			middleware.RBACAuthorize(rbacService, "leave", "withdraw"),
			handler.Withdraw,
		)

		leaves.POST("/:id/revert",
			middleware.RateLimitByActor(1, 5),
			middleware.Idempotency(rdb),
			middleware.RBACAuthorize(rbacService, "leave", "revert"),
			handler.Revert,
		)

		leaves.POST("/:id/effects/:effectID/redrive",
			middleware.RateLimitByActor(1, 5),
			middleware.Idempotency(rdb),
			middleware.RBACAuthorize(rbacService, "leave", "redrive"),
			handler.RedriveEffect,
		)
	}
}
