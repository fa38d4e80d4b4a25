package auth

import (
	"leavehub/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	auth := r.Group("/auth")
	{
		auth.POST("/token", middleware.RateLimitByIP(0.2, 5), handler.IssueToken)
	}
}
