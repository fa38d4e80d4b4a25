package rbac

import (
	"leavehub/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, service Service) {
	group := r.Group("/rbac")
	group.Use(middleware.AuthMiddleware())
	{
		group.GET("/policies", middleware.RBACAuthorize(service, "rbac", "read"), handler.ListPolicies)
	}
}
