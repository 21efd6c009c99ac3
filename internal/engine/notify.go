package engine

import (
	"time"

	"github.com/sirupsen/logrus"

	"bantay_tracker/internal/models"
)

// materializeViolation turns a dwell-exceeded crossing into a pending
// ViolationNotification exactly once per (entity, route, calendar day).
//
// Returns (nil, false, nil) when suppressed by the same-day cooldown. When a
// racing attempt already created the notification the winner's row is
// returned with created=false and only its live-position fields refreshed.
func (e *Engine) materializeViolation(pending *models.BoundaryCrossing, info *EntityInfo, pos *models.Position, dwell time.Duration, nowTS time.Time) (*models.ViolationNotification, bool, error) {
	violationTS := pending.CrossingTimestamp
	if violationTS.IsZero() {
		violationTS = nowTS
	}

	exists, err := e.store.SameDayViolationExists(pending.EntityKey, info.MFBRNumber, pending.FromMunicipality, pending.ToMunicipality, violationTS, e.settings.Location)
	if err != nil {
		return nil, false, err
	}
	if exists {
		logrus.WithFields(logrus.Fields{
			"entity": pending.EntityKey,
			"from":   pending.FromMunicipality,
			"to":     pending.ToMunicipality,
		}).Info("Violation suppressed by per-day route cooldown")
		if err := e.store.UpdateCrossingResolution(pending.ID, marshalResolution(resolutionPayload{
			Skipped:   "violation suppressed by same-day cooldown",
			Timestamp: nowTS.Format(time.RFC3339),
		})); err != nil {
			logrus.WithError(err).Warn("Failed to record cooldown suppression on crossing")
		}
		return nil, false, nil
	}

	notification := &models.ViolationNotification{
		BoundaryCrossingID: pending.ID,
		EntityKey:          pending.EntityKey,
		BoatName:           info.BoatName,
		MFBRNumber:         info.MFBRNumber,
		TrackerNumber:      info.TrackerSerial,
		OwnerName:          info.OwnerName,
		ContactName:        info.ContactName,
		ContactPhone:       info.PhoneNumber,
		RegistrationNo:     info.RegistrationNumber,
		FromMunicipality:   pending.FromMunicipality,
		ToMunicipality:     pending.ToMunicipality,
		ViolationTimestamp: violationTS,
		ViolationDay:       violationTS.In(e.settings.Location).Format("2006-01-02"),
		CurrentLat:         pos.Latitude,
		CurrentLng:         pos.Longitude,
		DwellDuration:      int(dwell.Seconds()),
		Status:             models.NotificationPending,
		ReportStatus:       models.ReportNotReported,
	}
	if notification.BoatName == "" {
		notification.BoatName = "Boat " + pending.EntityKey
	}

	if err := e.store.CreateViolation(notification); err != nil {
		// A near-simultaneous attempt may have won; find the winner and
		// refresh only its live fields rather than creating a second row.
		winner, lookupErr := e.store.LatestPendingViolation(pending.EntityKey, pending.FromMunicipality, pending.ToMunicipality)
		if lookupErr != nil || winner == nil {
			return nil, false, err
		}
		if updErr := e.store.UpdateViolationLive(winner.ID, pos.Latitude, pos.Longitude, int(dwell.Seconds())); updErr != nil {
			logrus.WithError(updErr).Warn("Failed to refresh live fields on winning violation")
		}
		winner.CurrentLat = pos.Latitude
		winner.CurrentLng = pos.Longitude
		winner.DwellDuration = int(dwell.Seconds())
		return winner, false, nil
	}

	logrus.WithFields(logrus.Fields{
		"violation": notification.ID,
		"entity":    notification.EntityKey,
		"route":     notification.FromMunicipality + " -> " + notification.ToMunicipality,
	}).Info("Violation notification created")

	return notification, true, nil
}
