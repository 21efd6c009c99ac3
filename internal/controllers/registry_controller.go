package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bantay_tracker/internal/config"
	"bantay_tracker/internal/models"
)

// Registry CRUD for fisherfolk, boats, and trackers. These tables feed the
// engine's entity snapshot resolution, so writes here change which
// municipality counts as home waters for a boat.

type fisherfolkInput struct {
	RegistrationNumber     string `json:"registration_number" binding:"required"`
	FirstName              string `json:"first_name" binding:"required"`
	LastName               string `json:"last_name" binding:"required"`
	ContactNumber          string `json:"contact_number"`
	Municipality           string `json:"municipality"`
	EmergencyContactName   string `json:"emergency_contact_name"`
	EmergencyContactNumber string `json:"emergency_contact_number"`
}

func CreateFisherfolk(c *gin.Context) {
	var input fisherfolkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fisherfolk := models.Fisherfolk{
		RegistrationNumber:     input.RegistrationNumber,
		FirstName:              input.FirstName,
		LastName:               input.LastName,
		ContactNumber:          input.ContactNumber,
		Municipality:           input.Municipality,
		EmergencyContactName:   input.EmergencyContactName,
		EmergencyContactNumber: input.EmergencyContactNumber,
	}
	if err := config.DB.Create(&fisherfolk).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			c.JSON(http.StatusConflict, gin.H{"error": "registration number already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create fisherfolk: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": fisherfolk})
}

func ListFisherfolk(c *gin.Context) {
	var fisherfolk []models.Fisherfolk
	query := config.DB.Order("last_name asc")
	if muni := c.Query("municipality"); muni != "" {
		query = query.Where("municipality = ?", muni)
	}
	if err := query.Find(&fisherfolk).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing fisherfolk: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": fisherfolk})
}

type boatInput struct {
	BoatName               string `json:"boat_name" binding:"required"`
	MFBRNumber             string `json:"mfbr_number" binding:"required"`
	FisherfolkID           uint   `json:"fisherfolk_id" binding:"required"`
	RegisteredMunicipality string `json:"registered_municipality" binding:"required"`
}

func CreateBoat(c *gin.Context) {
	var input boatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var owner models.Fisherfolk
	if err := config.DB.First(&owner, input.FisherfolkID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "fisherfolk does not exist"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error: " + err.Error()})
		}
		return
	}

	boat := models.Boat{
		BoatName:               input.BoatName,
		MFBRNumber:             input.MFBRNumber,
		FisherfolkID:           input.FisherfolkID,
		RegisteredMunicipality: input.RegisteredMunicipality,
		IsActive:               true,
	}
	if err := config.DB.Create(&boat).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			c.JSON(http.StatusConflict, gin.H{"error": "MFBR number already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create boat: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": boat})
}

func ListBoats(c *gin.Context) {
	var boats []models.Boat
	query := config.DB.Preload("Fisherfolk").Order("boat_name asc")
	if muni := c.Query("municipality"); muni != "" {
		query = query.Where("registered_municipality = ?", muni)
	}
	if err := query.Find(&boats).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing boats: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": boats})
}

type trackerInput struct {
	Serial       string `json:"serial" binding:"required"`
	BoatID       uint   `json:"boat_id" binding:"required"`
	Municipality string `json:"municipality"`
}

func CreateTracker(c *gin.Context) {
	var input trackerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var boat models.Boat
	if err := config.DB.First(&boat, input.BoatID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "boat does not exist"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error: " + err.Error()})
		}
		return
	}

	tracker := models.Tracker{
		Serial:       input.Serial,
		BoatID:       input.BoatID,
		Municipality: input.Municipality,
		Status:       "active",
	}
	if err := config.DB.Create(&tracker).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			c.JSON(http.StatusConflict, gin.H{"error": "tracker serial already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create tracker: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": tracker})
}

func ListTrackers(c *gin.Context) {
	var trackers []models.Tracker
	if err := config.DB.Preload("Boat.Fisherfolk").Order("serial asc").Find(&trackers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing trackers: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": trackers})
}
