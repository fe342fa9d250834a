package handlers

import (
	"net/http"

	"healthloop/internal/domain"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListBadges(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	badges, err := h.Badges.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if badges == nil {
		badges = []*domain.Badge{}
	}

	c.JSON(http.StatusOK, gin.H{"badges": badges})
}
