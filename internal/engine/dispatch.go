package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"bantay_tracker/internal/models"
	"bantay_tracker/internal/sms"
)

// MonitorChannel is the broadcast channel all live UI events go to.
const MonitorChannel = "gps_updates"

// DispatchResult carries both collaborator outcomes; a failure in one never
// blocks or rolls back the other.
type DispatchResult struct {
	SMS       sms.Result
	Broadcast bool
}

// Dispatcher fans a violation out to the SMS and live-broadcast
// collaborators. It runs after state transitions are committed and holds no
// lock on entity state; all calls are bounded by the configured timeout.
type Dispatcher struct {
	sender  sms.Sender
	pub     Publisher
	store   Store
	timeout time.Duration
}

func NewDispatcher(sender sms.Sender, pub Publisher, store Store, timeout time.Duration) *Dispatcher {
	return &Dispatcher{sender: sender, pub: pub, store: store, timeout: timeout}
}

// DispatchViolation sends the SMS and broadcasts the new violation. Results
// are recorded back onto the notification for audit. The broadcast is
// guarded by the notification's already-broadcast marker so a retry cannot
// re-announce the same violation.
func (d *Dispatcher) DispatchViolation(ctx context.Context, n *models.ViolationNotification, info *EntityInfo) DispatchResult {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var res DispatchResult

	phone := info.PhoneNumber
	if phone == "" {
		res.SMS = sms.Result{Error: "phone number not available", Timestamp: time.Now()}
		logrus.WithField("violation", n.ID).Warn("No phone number available, skipping SMS")
	} else {
		message := sms.BoundaryViolationMessage(n.BoatName, info.OwnerName, n.FromMunicipality, n.ToMunicipality)
		res.SMS = d.sender.Send(ctx, phone, message)
		if !res.SMS.Success {
			logrus.WithFields(logrus.Fields{
				"violation": n.ID,
				"error":     res.SMS.Error,
			}).Error("SMS dispatch failed")
		}
	}

	smsJSON, _ := json.Marshal(res.SMS)
	if err := d.store.MarkViolationDispatch(n.ID, res.SMS.Success, smsJSON, phone); err != nil {
		logrus.WithError(err).WithField("violation", n.ID).Warn("Failed to record SMS dispatch result")
	}

	won, err := d.store.MarkViolationBroadcast(n.ID, time.Now())
	if err != nil {
		logrus.WithError(err).WithField("violation", n.ID).Warn("Failed to set broadcast marker")
		return res
	}
	if !won {
		logrus.WithField("violation", n.ID).Debug("Violation already broadcast, skipping")
		return res
	}

	payload := map[string]interface{}{
		"id":                     n.ID,
		"boat_name":              n.BoatName,
		"mfbr_number":            n.MFBRNumber,
		"tracker_number":         n.TrackerNumber,
		"from_municipality":      n.FromMunicipality,
		"to_municipality":        n.ToMunicipality,
		"dwell_duration_minutes": n.DwellDuration / 60,
		"violation_timestamp":    n.ViolationTimestamp.Format(time.RFC3339),
		"current_lat":            n.CurrentLat,
		"current_lng":            n.CurrentLng,
		"owner_name":             n.OwnerName,
		"action":                 "created",
	}
	if err := d.pub.Publish(ctx, MonitorChannel, "boundary_notification", payload); err != nil {
		logrus.WithError(err).WithField("violation", n.ID).Warn("Violation broadcast failed")
		return res
	}
	res.Broadcast = true
	return res
}

// PublishViolationUpdate emits a lightweight position refresh for an
// existing violation; clients update markers without re-alerting.
func (d *Dispatcher) PublishViolationUpdate(ctx context.Context, n *models.ViolationNotification) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	_ = d.pub.Publish(ctx, MonitorChannel, "notification_update", map[string]interface{}{
		"notification_id":        n.ID,
		"mfbr_number":            n.MFBRNumber,
		"to_municipality":        n.ToMunicipality,
		"dwell_duration_minutes": n.DwellDuration / 60,
		"current_lat":            n.CurrentLat,
		"current_lng":            n.CurrentLng,
		"action":                 "update",
	})
}

// PublishViolationCleared announces that an entity returned home and its
// violation was cleared.
func (d *Dispatcher) PublishViolationCleared(ctx context.Context, n *models.ViolationNotification, returnedTo string, at time.Time) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	_ = d.pub.Publish(ctx, MonitorChannel, "violation_cleared", map[string]interface{}{
		"notification_id": n.ID,
		"mfbr_number":     n.MFBRNumber,
		"entity_key":      n.EntityKey,
		"returned_to":     returnedTo,
		"cleared_at":      at.Format(time.RFC3339),
	})
}

// PublishStatusTransition announces a tracker connectivity change.
func (d *Dispatcher) PublishStatusTransition(ctx context.Context, ev *models.TrackerStatusEvent) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	payload := map[string]interface{}{
		"tracker_serial":  ev.TrackerSerial,
		"entity_key":      ev.EntityKey,
		"status":          ev.Status,
		"previous_status": ev.PreviousStatus,
		"timestamp":       ev.Timestamp.Format(time.RFC3339),
		"latitude":        ev.Latitude,
		"longitude":       ev.Longitude,
	}
	if ev.SessionStart != nil {
		payload["session_start"] = ev.SessionStart.Format(time.RFC3339)
	}
	_ = d.pub.Publish(ctx, MonitorChannel, "tracker_status", payload)
}
