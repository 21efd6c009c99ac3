package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bantay_tracker/internal/config"
	"bantay_tracker/internal/models"
)

// RequireDeviceToken authenticates GPS devices posting position fixes. The
// token is a static per-device bearer credential, not a JWT. The matched
// DeviceToken row is stored in the context so the ingest handler can tie the
// fix to its tracker.
func RequireDeviceToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		var device models.DeviceToken
		err := config.DB.Preload("Tracker.Boat").
			Where("token = ? AND is_active = ?", tokenString, true).
			First(&device).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unknown or revoked device token"})
			} else {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "database error: " + err.Error()})
			}
			return
		}

		now := time.Now()
		if err := config.DB.Model(&device).Update("last_seen_at", now).Error; err == nil {
			device.LastSeenAt = &now
		}

		c.Set("device", &device)
		c.Next()
	}
}
