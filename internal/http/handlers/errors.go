package handlers

import (
	"errors"
	"net/http"

	"healthloop/internal/logger"
	"healthloop/internal/service"

	"github.com/gin-gonic/gin"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrInvalidAmount, http.StatusBadRequest},
	{service.ErrUnknownPlan, http.StatusBadRequest},
	{service.ErrSameLevel, http.StatusConflict},
	{service.ErrDowngradeNotSupported, http.StatusConflict},
	{service.ErrEmailTaken, http.StatusConflict},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrStoreUnavailable, http.StatusServiceUnavailable},
}

// respondError maps service errors to a status and a gin.H{"error": ...} body.
func respondError(c *gin.Context, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			if e.status == http.StatusServiceUnavailable {
				c.Header("Retry-After", "5")
			}
			c.JSON(e.status, gin.H{"error": e.err.Error()})
			return
		}
	}

	log := logger.WithContext(c.Request.Context())
	if errors.Is(err, service.ErrUnknownAction) {
		log.Error("loyalty rules misconfigured", "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "action is not configured"})
		return
	}
	log.Error("request failed", "error", err, "path", c.FullPath())
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
