package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"bantay_tracker/internal/geofence"
	"bantay_tracker/internal/models"
)

// Fix is one incoming GPS fix, already authenticated and attributed to a
// device at the transport layer.
type Fix struct {
	MFBRNumber    string
	TrackerSerial string
	Latitude      float64
	Longitude     float64
	Timestamp     time.Time
}

// IngestResult summarizes what one fix triggered. Devices use Beep to sound
// their onboard buzzer on a fresh violation.
type IngestResult struct {
	EntityKey          string `json:"entity_key"`
	Municipality       string `json:"municipality,omitempty"`
	CrossingDetected   bool   `json:"crossing_detected"`
	Pending            bool   `json:"pending"`
	DwellAlertSent     bool   `json:"dwell_alert_sent"`
	Beep               bool   `json:"beep"`
	Cooldown           bool   `json:"cooldown,omitempty"`
	ConnectivityStatus string `json:"connectivity_status,omitempty"`
}

// Ingest is the sole entry point driving the engine: it persists the fix,
// advances the connectivity state machine, runs crossing detection, and
// evaluates the entity's pending crossings. Only a failure to persist the
// fix itself is returned as an error; every downstream failure is isolated
// and logged per record.
func (e *Engine) Ingest(ctx context.Context, fix Fix) (*IngestResult, error) {
	entityKey := CanonicalEntityKey(fix.MFBRNumber, fix.TrackerSerial)
	if entityKey == "" {
		return nil, fmt.Errorf("fix has neither MFBR number nor tracker serial")
	}
	if fix.Timestamp.IsZero() {
		fix.Timestamp = e.now()
	}

	pos := &models.Position{
		EntityKey:     entityKey,
		Latitude:      fix.Latitude,
		Longitude:     fix.Longitude,
		MFBRNumber:    fix.MFBRNumber,
		TrackerSerial: fix.TrackerSerial,
		Timestamp:     fix.Timestamp,
	}
	if err := e.store.SavePosition(pos); err != nil {
		return nil, fmt.Errorf("persisting position: %w", err)
	}

	res := &IngestResult{EntityKey: entityKey}

	// Connectivity state machine runs off the same fix, independently of
	// the boundary pipeline.
	if fix.TrackerSerial != "" {
		event, err := e.recordStatusTransition(fix.TrackerSerial, entityKey, fix.MFBRNumber, pos)
		switch {
		case err != nil:
			logrus.WithError(err).WithField("tracker", fix.TrackerSerial).Error("Connectivity transition failed")
		case event != nil:
			res.ConnectivityStatus = event.Status
			e.dispatcher.PublishStatusTransition(ctx, event)
		default:
			if last, err := e.store.LastStatusEvent(fix.TrackerSerial); err == nil && last != nil {
				res.ConnectivityStatus = last.Status
			}
		}
	}

	currentMuni, located := e.index.Locate(fix.Latitude, fix.Longitude)
	if located {
		res.Municipality = currentMuni
	}

	ev, err := e.detectCrossing(entityKey, pos)
	if err != nil {
		logrus.WithError(err).WithField("entity", entityKey).Error("Crossing detection failed")
	} else if ev != nil {
		res.CrossingDetected = true
		created, err := e.registerCrossing(ev)
		if err != nil {
			logrus.WithError(err).WithField("entity", entityKey).Error("Failed to register crossing")
		}
		res.Pending = created
	}

	info, err := e.registry.Resolve(fix.MFBRNumber, fix.TrackerSerial)
	if err != nil {
		logrus.WithError(err).WithField("entity", entityKey).Warn("Registry lookup failed, proceeding with bare snapshot")
		info = &EntityInfo{EntityKey: entityKey, MFBRNumber: fix.MFBRNumber, TrackerSerial: fix.TrackerSerial}
	}
	info.EntityKey = entityKey

	// An entity first seen away from home still accrues dwell: seed a
	// pending crossing when the crossing moment was never captured.
	home := e.homeMunicipality(info)
	if located && home != "" && !geofence.SameMunicipality(currentMuni, home) {
		e.seedPendingCrossing(entityKey, home, currentMuni, pos)
	}

	e.evaluateOpenCrossings(ctx, entityKey, info, pos, currentMuni, located, res)

	return res, nil
}
