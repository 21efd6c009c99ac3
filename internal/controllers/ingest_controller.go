package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bantay_tracker/internal/engine"
	"bantay_tracker/internal/models"
)

// positionInput is one GPS fix posted by a tracker device. Cheap embedded
// firmware sends timestamps in several shapes, so the field is a string and
// parsed leniently.
type positionInput struct {
	Latitude   float64 `json:"latitude" binding:"required"`
	Longitude  float64 `json:"longitude" binding:"required"`
	MFBRNumber string  `json:"mfbr_number"`
	Timestamp  string  `json:"timestamp"`
}

func parseDeviceTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	ts := raw
	// Bare local timestamps from old firmware carry no zone; assume UTC.
	if !(strings.HasSuffix(ts, "Z") || (len(ts) > 6 && strings.ContainsAny(ts[len(ts)-6:], "+-"))) {
		ts += "Z"
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IngestPosition receives one authenticated device fix and runs it through
// the boundary engine. The response carries the beep flag the device firmware
// uses to sound its onboard buzzer.
func IngestPosition(c *gin.Context) {
	deviceIfc, ok := c.Get("device")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "device not authenticated"})
		return
	}
	device := deviceIfc.(*models.DeviceToken)

	var input positionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fix := engine.Fix{
		MFBRNumber: input.MFBRNumber,
		Latitude:   input.Latitude,
		Longitude:  input.Longitude,
	}
	if ts, ok := parseDeviceTimestamp(input.Timestamp); ok {
		fix.Timestamp = ts
	} else if input.Timestamp != "" {
		logrus.WithField("raw_timestamp", input.Timestamp).Warn("Unparseable device timestamp, using server time")
	}
	if device.Tracker != nil {
		fix.TrackerSerial = device.Tracker.Serial
		if fix.MFBRNumber == "" && device.Tracker.Boat != nil {
			fix.MFBRNumber = device.Tracker.Boat.MFBRNumber
		}
	}

	result, err := boundaryEngine.Ingest(c.Request.Context(), fix)
	if err != nil {
		logrus.WithError(err).Error("Position ingest failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process position: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
