package handlers

import (
	"net/http"

	"healthloop/internal/domain"

	"github.com/gin-gonic/gin"
)

type upgradeRequest struct {
	NewLevel domain.MembershipLevel `json:"new_level" binding:"required"`
}

func (h *Handler) Plans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"plans":      h.Membership.Plans(),
		"promotions": h.Membership.Promotions(),
	})
}

func (h *Handler) Upgrade(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req upgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	res, err := h.Membership.Upgrade(c.Request.Context(), userID, req.NewLevel)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
