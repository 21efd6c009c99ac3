package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bantay_tracker/internal/config"
	"bantay_tracker/internal/models"
)

type deviceTokenInput struct {
	Name      string `json:"name" binding:"required"`
	TrackerID uint   `json:"tracker_id" binding:"required"`
}

// CreateDeviceToken issues a bearer credential for one tracker device. The
// token value is only returned once, on creation.
func CreateDeviceToken(c *gin.Context) {
	var input deviceTokenInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var tracker models.Tracker
	if err := config.DB.First(&tracker, input.TrackerID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tracker does not exist"})
		return
	}

	token := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	device := models.DeviceToken{
		Name:      input.Name,
		Token:     token,
		TrackerID: input.TrackerID,
		IsActive:  true,
	}
	if err := config.DB.Create(&device).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create device token: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": gin.H{
		"ID":         device.ID,
		"name":       device.Name,
		"tracker_id": device.TrackerID,
		"token":      token,
	}})
}

// ListDeviceTokens lists registered devices without their token values.
func ListDeviceTokens(c *gin.Context) {
	var devices []models.DeviceToken
	err := config.DB.
		Select("id", "created_at", "updated_at", "name", "tracker_id", "is_active", "last_seen_at").
		Preload("Tracker").
		Find(&devices).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing device tokens: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": devices})
}

// RevokeDeviceToken deactivates a device credential.
func RevokeDeviceToken(c *gin.Context) {
	result := config.DB.Model(&models.DeviceToken{}).
		Where("id = ?", c.Param("id")).
		Update("is_active", false)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not revoke token: " + result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "device token not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": "revoked"})
}
