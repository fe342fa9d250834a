package handlers

import (
	"net/http"

	"healthloop/internal/http/middleware"
	"healthloop/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Auth       *service.AuthService
	Points     *service.PointsService
	Badges     *service.BadgeService
	Membership *service.MembershipService
	Dashboard  *service.DashboardService
	Audit      *service.AuditService
	Stats      *service.StatsService
}

// getUserID reads the id placed in the context by middleware.JWT and
// answers 401 when it is missing.
func getUserID(c *gin.Context) (int64, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	return userID, true
}

func requestMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}
