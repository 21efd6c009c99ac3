package engine

import (
	"time"

	"bantay_tracker/internal/config"
	"bantay_tracker/internal/geofence"
)

// Engine is the boundary-crossing detection and dwell-time violation core.
// It is invoked synchronously once per ingested fix, potentially from many
// concurrent ingestion calls; all cross-call state lives in the Store, and
// the geofence index is shared read-only.
type Engine struct {
	store      Store
	registry   Registry
	index      *geofence.Index
	dispatcher *Dispatcher
	settings   *config.Settings

	now func() time.Time
}

func New(store Store, registry Registry, index *geofence.Index, dispatcher *Dispatcher, settings *config.Settings) *Engine {
	return &Engine{
		store:      store,
		registry:   registry,
		index:      index,
		dispatcher: dispatcher,
		settings:   settings,
		now:        time.Now,
	}
}

// CanonicalEntityKey resolves the single tracked-entity key all engine state
// is keyed on: the MFBR registration number when the boat is registered,
// otherwise the tracker serial.
func CanonicalEntityKey(mfbr, trackerSerial string) string {
	if mfbr != "" {
		return mfbr
	}
	return trackerSerial
}

// homeMunicipality picks the entity's home waters from the registry
// candidates (boat registered, tracker configured, fisherfolk address, in
// that order), preferring the first candidate that is a coastal
// municipality; when none is coastal the first candidate wins.
func (e *Engine) homeMunicipality(info *EntityInfo) string {
	if info == nil {
		return ""
	}
	for _, cand := range info.HomeCandidates {
		if cand != "" && e.index.IsCoastal(cand) {
			return cand
		}
	}
	for _, cand := range info.HomeCandidates {
		if cand != "" {
			return cand
		}
	}
	return ""
}
