package middleware

import (
	"net/http"

	"leavehub/internal/domain"

	"github.com/gin-gonic/gin"
)

// RBACService adalah interface lokal.
// Apapun package yang punya method Enforce(domain.EnforceRequest) bisa masuk ke sini.
type RBACService interface {
	Enforce(req domain.EnforceRequest) (bool, error)
}

func RBACAuthorize(service RBACService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			c.Abort()
			return
		}

		// Menggunakan struct domain
		req := domain.EnforceRequest{
			Role:     role,
			Resource: resource,
			Action:   action,
		}

		allowed, err := service.Enforce(req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{
				"error":    "forbidden",
				"message":  "You do not have permission to access this resource",
				"required": resource + ":" + action,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
