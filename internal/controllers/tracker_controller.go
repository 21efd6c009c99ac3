package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bantay_tracker/internal/config"
	"bantay_tracker/internal/models"
)

// GetTrackerStatus returns the tracker's current connectivity status: the
// latest transition event, or "unknown" when none has been recorded.
func GetTrackerStatus(c *gin.Context) {
	serial := c.Param("serial")

	var event models.TrackerStatusEvent
	err := config.DB.
		Where("tracker_serial = ?", serial).
		Order("timestamp desc").
		First(&event).Error
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"data": gin.H{
			"tracker_serial": serial,
			"status":         models.TrackerUnknown,
		}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": event})
}

// ListTrackerStatusEvents returns the transition history for one tracker,
// newest first.
func ListTrackerStatusEvents(c *gin.Context) {
	var events []models.TrackerStatusEvent
	err := config.DB.
		Where("tracker_serial = ?", c.Param("serial")).
		Order("timestamp desc").
		Limit(200).
		Find(&events).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing status events: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": events})
}
