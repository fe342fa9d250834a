package handlers

import (
	"net/http"

	"healthloop/internal/domain"
	"healthloop/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ProfessionalDashboard(c *gin.Context) {
	if _, ok := getUserID(c); !ok {
		return
	}
	if middleware.Role(c) != domain.RoleProfessional {
		c.JSON(http.StatusForbidden, gin.H{"error": "professional access required"})
		return
	}

	d, err := h.Stats.Professional(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, d)
}
