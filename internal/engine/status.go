package engine

import (
	"time"

	"github.com/sirupsen/logrus"

	"bantay_tracker/internal/models"
)

// classifyGap maps the time since a tracker's previous fix to a target
// connectivity state.
func classifyGap(gap time.Duration, onlineGap, offlineGap time.Duration) string {
	switch {
	case gap <= onlineGap:
		return models.TrackerOnline
	case gap <= offlineGap:
		return models.TrackerReconnecting
	default:
		return models.TrackerOffline
	}
}

// recordStatusTransition runs the connectivity state machine for one fix.
// Only a change of state writes an event; re-entering online from
// offline/reconnecting is relabeled "reconnected" and starts a new session,
// while continuing online carries the existing session start forward.
// Returns the written event, or nil when the state was unchanged.
func (e *Engine) recordStatusTransition(serial, entityKey, mfbr string, pos *models.Position) (*models.TrackerStatusEvent, error) {
	last, err := e.store.LastStatusEvent(serial)
	if err != nil {
		return nil, err
	}

	target := models.TrackerOnline
	if last != nil {
		// Gap is measured against the previous fix, not the previous
		// transition event: steady posting writes no events, so the last
		// event can be arbitrarily old while the device is healthy.
		reference := last.Timestamp
		prev, err := e.store.PreviousPosition(entityKey, pos.Timestamp)
		if err != nil {
			return nil, err
		}
		if prev != nil {
			reference = prev.Timestamp
		}
		target = classifyGap(pos.Timestamp.Sub(reference), e.settings.OnlineGap, e.settings.OfflineGap)
	}

	previous := models.TrackerUnknown
	if last != nil {
		previous = last.Status
	}
	if previous == target {
		return nil, nil
	}

	if target == models.TrackerOnline &&
		(previous == models.TrackerOffline || previous == models.TrackerReconnecting) {
		target = models.TrackerReconnected
	}
	if previous == target {
		return nil, nil
	}

	var sessionStart *time.Time
	if target == models.TrackerOnline || target == models.TrackerReconnected {
		switch previous {
		case models.TrackerOffline, models.TrackerReconnecting, models.TrackerUnknown:
			ts := pos.Timestamp
			sessionStart = &ts
		default:
			if last != nil && last.SessionStart != nil {
				sessionStart = last.SessionStart
			}
		}
	}

	event := &models.TrackerStatusEvent{
		TrackerSerial:  serial,
		EntityKey:      entityKey,
		MFBRNumber:     mfbr,
		Status:         target,
		PreviousStatus: previous,
		Timestamp:      pos.Timestamp,
		SessionStart:   sessionStart,
		Latitude:       pos.Latitude,
		Longitude:      pos.Longitude,
	}
	if err := e.store.CreateStatusEvent(event); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"tracker": serial,
		"from":    previous,
		"to":      target,
	}).Info("Tracker status transition recorded")

	return event, nil
}
