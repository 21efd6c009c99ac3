package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"bantay_tracker/internal/geofence"
	"bantay_tracker/internal/models"
)

// resolutionPayload is what gets stored on a crossing when it leaves the
// open state.
type resolutionPayload struct {
	Skipped    string      `json:"skipped,omitempty"`
	Status     string      `json:"status,omitempty"`
	ReturnedTo string      `json:"returned_to,omitempty"`
	ClearedAt  string      `json:"cleared_at,omitempty"`
	SMS        interface{} `json:"sms,omitempty"`
	Timestamp  string      `json:"timestamp,omitempty"`
}

func marshalResolution(p resolutionPayload) []byte {
	b, _ := json.Marshal(p)
	return b
}

// registerCrossing turns a detected CrossingEvent into an open pending
// crossing. When an open crossing for the same (entity, destination) already
// exists the event is kept only as a resolved-duplicate audit row.
func (e *Engine) registerCrossing(ev *CrossingEvent) (bool, error) {
	crossing := &models.BoundaryCrossing{
		EntityKey:         ev.EntityKey,
		FromMunicipality:  geofence.Normalize(ev.FromMunicipality),
		ToMunicipality:    geofence.Normalize(ev.ToMunicipality),
		FromLat:           ev.FromLat,
		FromLng:           ev.FromLng,
		ToLat:             ev.ToLat,
		ToLng:             ev.ToLng,
		CrossingTimestamp: ev.Timestamp,
		Status:            models.CrossingOpen,
	}

	created, err := e.store.CreateOpenCrossing(crossing)
	if err != nil {
		return false, err
	}
	if created {
		return true, nil
	}

	// Lost to an existing open row; keep the event for audit
	crossing.Status = models.CrossingResolvedDuplicate
	crossing.Resolution = marshalResolution(resolutionPayload{
		Skipped:   "duplicate pending crossing suppressed",
		Timestamp: e.now().Format(time.RFC3339),
	})
	if err := e.store.RecordCrossing(crossing); err != nil {
		logrus.WithError(err).Warn("Failed to record duplicate crossing audit row")
	}
	return false, nil
}

// seedPendingCrossing creates a pending crossing for an entity observed away
// from home when the actual crossing moment was never captured (device
// started after crossing). The crossing timestamp is backdated to the first
// fix seen in the current municipality within the backdate window, so dwell
// accrues from when the boat actually arrived.
func (e *Engine) seedPendingCrossing(entityKey, home, currentMuni string, pos *models.Position) {
	open, err := e.store.OpenCrossingExists(entityKey, currentMuni)
	if err != nil || open {
		return
	}
	active, err := e.store.ActiveViolationExists(entityKey, currentMuni)
	if err != nil || active {
		return
	}

	seedTS := pos.Timestamp
	fixes, err := e.store.PositionsSince(entityKey, e.now().Add(-e.settings.SeedBackdateWindow), 500)
	if err == nil {
		for i := range fixes {
			muni, ok := e.index.Locate(fixes[i].Latitude, fixes[i].Longitude)
			if ok && geofence.SameMunicipality(muni, currentMuni) {
				seedTS = fixes[i].Timestamp
				break
			}
		}
	}

	crossing := &models.BoundaryCrossing{
		EntityKey:         entityKey,
		FromMunicipality:  geofence.Normalize(home),
		ToMunicipality:    geofence.Normalize(currentMuni),
		FromLat:           pos.Latitude,
		FromLng:           pos.Longitude,
		ToLat:             pos.Latitude,
		ToLng:             pos.Longitude,
		CrossingTimestamp: seedTS,
		Status:            models.CrossingOpen,
	}
	created, err := e.store.CreateOpenCrossing(crossing)
	if err != nil {
		logrus.WithError(err).WithField("entity", entityKey).Warn("Could not seed pending crossing")
		return
	}
	if created {
		logrus.WithFields(logrus.Fields{
			"entity": entityKey,
			"from":   home,
			"to":     currentMuni,
			"seeded": seedTS,
		}).Info("Seeded pending crossing for entity already away from home")
	}
}

// evaluateOpenCrossings advances every open pending crossing for the entity:
// home-return clears immediately, insufficient dwell leaves it open, and an
// exceeded dwell threshold flips it to resolved-dwelled (guarded, so a
// racing evaluation cannot double-fire) and hands off to the notification
// manager. Work per fix is capped; an error on one record is logged and does
// not abort the others.
func (e *Engine) evaluateOpenCrossings(ctx context.Context, entityKey string, info *EntityInfo, pos *models.Position, currentMuni string, located bool, res *IngestResult) {
	home := e.homeMunicipality(info)
	nowTS := e.now()

	pendings, err := e.store.OpenCrossings(entityKey)
	if err != nil {
		logrus.WithError(err).WithField("entity", entityKey).Error("Failed to load open pending crossings")
		return
	}

	processed := 0
	for i := range pendings {
		if processed >= e.settings.MaxResolvedPerFix {
			logrus.WithField("entity", entityKey).Info("Reached max pending crossings per fix, deferring the rest")
			break
		}
		pending := &pendings[i]

		// Home return short-circuits dwell entirely
		if located && home != "" && geofence.SameMunicipality(currentMuni, home) {
			e.resolveReturned(ctx, entityKey, pending, currentMuni, nowTS)
			processed++
			continue
		}

		dwell := nowTS.Sub(pending.CrossingTimestamp)
		if dwell < e.settings.DwellThreshold {
			logrus.WithFields(logrus.Fields{
				"crossing":  pending.ID,
				"remaining": (e.settings.DwellThreshold - dwell).Round(time.Second),
			}).Debug("Pending crossing below dwell threshold")
			continue
		}

		// Flip before any side effect so a concurrent evaluation of the
		// same record cannot double-fire.
		flipped, err := e.store.ResolveCrossing(pending.ID, models.CrossingResolvedDwelled, marshalResolution(resolutionPayload{
			Status:    "processing",
			Timestamp: nowTS.Format(time.RFC3339),
		}))
		if err != nil {
			logrus.WithError(err).WithField("crossing", pending.ID).Error("Failed to mark crossing resolved-dwelled")
			continue
		}
		if !flipped {
			logrus.WithField("crossing", pending.ID).Debug("Lost resolve race, skipping")
			continue
		}
		processed++

		logrus.WithFields(logrus.Fields{
			"crossing": pending.ID,
			"from":     pending.FromMunicipality,
			"to":       pending.ToMunicipality,
			"dwell":    dwell.Round(time.Second),
		}).Warn("Dwell threshold exceeded, materializing violation")

		notification, created, err := e.materializeViolation(pending, info, pos, dwell, nowTS)
		if err != nil {
			logrus.WithError(err).WithField("crossing", pending.ID).Error("Failed to materialize violation notification")
			continue
		}
		if notification == nil {
			// Suppressed by the per-day route cooldown
			res.Cooldown = true
			continue
		}
		if !created {
			// A racing materialization won; live fields were refreshed
			e.dispatcher.PublishViolationUpdate(ctx, notification)
			continue
		}

		res.DwellAlertSent = true
		res.Beep = true

		dispatch := e.dispatcher.DispatchViolation(ctx, notification, info)
		if err := e.store.UpdateCrossingResolution(pending.ID, marshalResolution(resolutionPayload{
			Status:    "notified",
			SMS:       dispatch.SMS,
			Timestamp: e.now().Format(time.RFC3339),
		})); err != nil {
			logrus.WithError(err).WithField("crossing", pending.ID).Warn("Failed to record dispatch result on crossing")
		}
	}
}

// resolveReturned flips one pending crossing to resolved-returned, clears
// any pending UI notifications for the entity, and announces the clear.
func (e *Engine) resolveReturned(ctx context.Context, entityKey string, pending *models.BoundaryCrossing, currentMuni string, nowTS time.Time) {
	flipped, err := e.store.ResolveCrossing(pending.ID, models.CrossingResolvedReturned, marshalResolution(resolutionPayload{
		Skipped:    "entity returned to registered municipality",
		ReturnedTo: currentMuni,
		ClearedAt:  nowTS.Format(time.RFC3339),
	}))
	if err != nil {
		logrus.WithError(err).WithField("crossing", pending.ID).Error("Failed to resolve returned crossing")
		return
	}
	if !flipped {
		return
	}
	logrus.WithFields(logrus.Fields{
		"crossing":    pending.ID,
		"returned_to": currentMuni,
	}).Info("Cleared pending crossing, entity back in home municipality")

	cleared, err := e.store.ClearViolations(entityKey)
	if err != nil {
		logrus.WithError(err).WithField("entity", entityKey).Warn("Could not clear violation notifications")
		return
	}
	for i := range cleared {
		e.dispatcher.PublishViolationCleared(ctx, &cleared[i], currentMuni, nowTS)
	}
}
