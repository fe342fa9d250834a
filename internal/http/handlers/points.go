package handlers

import (
	"net/http"
	"strconv"

	"healthloop/internal/domain"
	"healthloop/internal/service"

	"github.com/gin-gonic/gin"
)

const maxHistoryLimit = 500

type addPointsRequest struct {
	Action      domain.Action `json:"action" binding:"required,oneof=registration first_purchase purchase schedule_consultation complete_profile refer_friend complete_consultation video_completion"`
	Description string        `json:"description" binding:"max=500"`
	AmountSpent float64       `json:"amount_spent" binding:"gte=0,lte=1000000"`
}

func (h *Handler) AddPoints(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req addPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()
	awarded, err := h.Points.AwardPoints(ctx, service.AwardRequest{
		UserID:      userID,
		Action:      req.Action,
		Description: req.Description,
		AmountSpent: req.AmountSpent,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.Auth.User(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"points_awarded":      awarded,
		"points":              user.Points,
		"total_points_earned": user.TotalPointsEarned,
		"level":               user.Level,
	})
}

// History returns up to limit ledger entries, newest first. limit defaults to 50.
func (h *Handler) History(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxHistoryLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	ctx := c.Request.Context()
	user, err := h.Auth.User(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	txs, err := h.Points.RecentTransactions(ctx, userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	progress := h.Points.Progress(user)
	c.JSON(http.StatusOK, gin.H{
		"transactions":        txs,
		"total_points":        progress.TotalPoints,
		"current_level":       progress.CurrentLevel,
		"progress_percentage": progress.ProgressPercentage,
		"next_level_points":   progress.NextLevelPoints,
	})
}

func (h *Handler) Levels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"levels": h.Points.Tiers()})
}
