package engine

import (
	"github.com/sirupsen/logrus"

	"bantay_tracker/internal/geofence"
	"bantay_tracker/internal/models"
)

// detectCrossing compares the fix's municipality against the entity's most
// recent prior fix. Emits a CrossingEvent when both classify and differ,
// unless the same (entity, from, to) crossing was already recorded within
// the re-cross suppression window (GPS jitter across a border).
//
// No event for an entity's first fix or for points outside every polygon;
// a crossing is never inferred from a single point in isolation.
func (e *Engine) detectCrossing(entityKey string, pos *models.Position) (*CrossingEvent, error) {
	currentMuni, ok := e.index.Locate(pos.Latitude, pos.Longitude)
	if !ok {
		return nil, nil
	}

	prev, err := e.store.LatestPositionBefore(entityKey, pos.Timestamp, e.settings.RecencyWindow, pos.Latitude, pos.Longitude)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		logrus.WithField("entity", entityKey).Debug("No previous position, skipping crossing detection")
		return nil, nil
	}

	previousMuni, ok := e.index.Locate(prev.Latitude, prev.Longitude)
	if !ok {
		return nil, nil
	}

	if geofence.SameMunicipality(previousMuni, currentMuni) {
		return nil, nil
	}

	cutoff := e.now().Add(-e.settings.RecrossWindow)
	recent, err := e.store.RecentCrossingExists(entityKey, previousMuni, currentMuni, cutoff)
	if err != nil {
		return nil, err
	}
	if recent {
		logrus.WithFields(logrus.Fields{
			"entity": entityKey,
			"from":   previousMuni,
			"to":     currentMuni,
		}).Debug("Recent crossing already recorded, suppressing re-detection")
		return nil, nil
	}

	logrus.WithFields(logrus.Fields{
		"entity": entityKey,
		"from":   previousMuni,
		"to":     currentMuni,
	}).Info("Boundary crossing detected")

	return &CrossingEvent{
		EntityKey:        entityKey,
		FromMunicipality: previousMuni,
		ToMunicipality:   currentMuni,
		FromLat:          prev.Latitude,
		FromLng:          prev.Longitude,
		ToLat:            pos.Latitude,
		ToLng:            pos.Longitude,
		Timestamp:        e.now(),
	}, nil
}
