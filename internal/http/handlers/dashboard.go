package handlers

import (
	"net/http"

	"healthloop/internal/domain"
	"healthloop/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ClientDashboard(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	if middleware.Role(c) != domain.RoleClient {
		c.JSON(http.StatusForbidden, gin.H{"error": "client access required"})
		return
	}

	d, err := h.Dashboard.Client(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, d)
}
