package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bantay_tracker/internal/config"
	"bantay_tracker/internal/models"
)

// ListViolations returns violation notifications, newest first. Municipal
// agriculturists only see violations touching their own municipality;
// provincial users and admins see everything.
func ListViolations(c *gin.Context) {
	query := config.DB.Model(&models.ViolationNotification{}).Order("created_at desc")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if mfbr := c.Query("mfbr_number"); mfbr != "" {
		query = query.Where("mfbr_number = ?", mfbr)
	}

	if role, _ := c.Get("role"); role == "municipal_agriculturist" {
		muniIfc, _ := c.Get("municipality")
		muni, _ := muniIfc.(string)
		if muni == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "no municipality assigned to account"})
			return
		}
		query = query.Where("from_municipality = ? OR to_municipality = ?", muni, muni)
	}

	var violations []models.ViolationNotification
	if err := query.Limit(500).Find(&violations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing violations: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": violations})
}

// GetViolation returns one violation with its originating crossing.
func GetViolation(c *gin.Context) {
	var violation models.ViolationNotification
	err := config.DB.Preload("BoundaryCrossing").First(&violation, c.Param("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "violation not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": violation})
}

type violationStatusInput struct {
	Status string `json:"status" binding:"required"`
}

// UpdateViolationStatus marks a violation read or dismissed and writes an
// audit log row recording who changed it.
func UpdateViolationStatus(c *gin.Context) {
	var input violationStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Status != models.NotificationRead && input.Status != models.NotificationDismissed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be 'read' or 'dismissed'"})
		return
	}

	var violation models.ViolationNotification
	if err := config.DB.First(&violation, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "violation not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error: " + err.Error()})
		}
		return
	}

	userID := currentUserID(c)
	role, _ := c.Get("role")
	oldStatus := violation.Status
	now := time.Now()

	updates := map[string]interface{}{"status": input.Status}
	if input.Status == models.NotificationRead {
		updates["read_at"] = now
		updates["read_by"] = userID
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start transaction"})
		return
	}
	if err := tx.Model(&violation).Updates(updates).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update violation: " + err.Error()})
		return
	}
	audit := models.ViolationAuditLog{
		ViolationID: violation.ID,
		UserID:      userID,
		UserRole:    fmt.Sprintf("%v", role),
		OldStatus:   oldStatus,
		NewStatus:   input.Status,
		IPAddress:   c.ClientIP(),
		UserAgent:   c.GetHeader("User-Agent"),
	}
	if err := tx.Create(&audit).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record audit log: " + err.Error()})
		return
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not commit transaction: " + err.Error()})
		return
	}

	violation.Status = input.Status
	c.JSON(http.StatusOK, gin.H{"data": violation})
}

type violationReportInput struct {
	ReportStatus string `json:"report_status" binding:"required"`
	Remarks      string `json:"remarks"`
}

func validReportStatus(s string) bool {
	switch s {
	case models.ReportNotReported, models.ReportFisherfolkReported,
		models.ReportUnderInvestigation, models.ReportResolved:
		return true
	}
	return false
}

// UpdateViolationReport advances the enforcement report workflow. A report
// number is assigned the first time the violation leaves "Not Reported".
func UpdateViolationReport(c *gin.Context) {
	var input violationReportInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validReportStatus(input.ReportStatus) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report_status"})
		return
	}

	var violation models.ViolationNotification
	if err := config.DB.First(&violation, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "violation not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error: " + err.Error()})
		}
		return
	}

	userID := currentUserID(c)
	role, _ := c.Get("role")
	oldReportStatus := violation.ReportStatus
	oldRemarks := violation.Remarks
	now := time.Now()

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start transaction"})
		return
	}

	updates := map[string]interface{}{
		"report_status":     input.ReportStatus,
		"remarks":           input.Remarks,
		"status_updated_at": now,
		"status_updated_by": userID,
	}
	if violation.ReportNumber == "" && input.ReportStatus != models.ReportNotReported {
		number, err := nextReportNumber(tx, now)
		if err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not assign report number: " + err.Error()})
			return
		}
		updates["report_number"] = number
		violation.ReportNumber = number
	}

	if err := tx.Model(&violation).Updates(updates).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update report: " + err.Error()})
		return
	}
	audit := models.ViolationAuditLog{
		ViolationID:    violation.ID,
		UserID:         userID,
		UserRole:       fmt.Sprintf("%v", role),
		OldStatus:      oldReportStatus,
		NewStatus:      input.ReportStatus,
		OldRemarks:     oldRemarks,
		NewRemarks:     input.Remarks,
		RemarksChanged: oldRemarks != input.Remarks,
		IPAddress:      c.ClientIP(),
		UserAgent:      c.GetHeader("User-Agent"),
	}
	if err := tx.Create(&audit).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record audit log: " + err.Error()})
		return
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not commit transaction: " + err.Error()})
		return
	}

	violation.ReportStatus = input.ReportStatus
	violation.Remarks = input.Remarks
	violation.StatusUpdatedAt = &now
	violation.StatusUpdatedBy = userID
	c.JSON(http.StatusOK, gin.H{"data": violation})
}

// ListViolationAuditLogs returns the change history for one violation.
func ListViolationAuditLogs(c *gin.Context) {
	var logs []models.ViolationAuditLog
	err := config.DB.
		Where("violation_id = ?", c.Param("id")).
		Order("created_at desc").
		Find(&logs).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing audit logs: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs})
}

// nextReportNumber allocates RPT-<year>-<seq> within the current year.
func nextReportNumber(tx *gorm.DB, now time.Time) (string, error) {
	prefix := fmt.Sprintf("RPT-%d-", now.Year())
	var count int64
	err := tx.Model(&models.ViolationNotification{}).
		Where("report_number LIKE ?", prefix+"%").
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

func currentUserID(c *gin.Context) uint {
	idIfc, _ := c.Get("user_id")
	if id, ok := idIfc.(uint); ok {
		return id
	}
	if idf, ok := idIfc.(float64); ok {
		return uint(idf)
	}
	return 0
}
