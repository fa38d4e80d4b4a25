package rbac

import (
	"net/http"

	"leavehub/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListPolicies mengekspos kebijakan efektif untuk keperluan operasional.
func (h *Handler) ListPolicies(c *gin.Context) {
	policies := h.service.Policies()

	rows := make([]PolicyRow, 0, len(policies))
	for _, p := range policies {
		rows = append(rows, PolicyRow{
			Role:     p.Role,
			Resource: p.Resource,
			Action:   p.Action,
		})
	}

	response.Success(c, http.StatusOK, PoliciesResponse{Policies: rows}, nil)
}
