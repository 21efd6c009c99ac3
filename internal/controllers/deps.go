package controllers

import (
	"bantay_tracker/internal/broadcast"
	"bantay_tracker/internal/engine"
	"bantay_tracker/internal/geofence"
)

// Package-level collaborators, wired once at startup.
var (
	boundaryEngine *engine.Engine
	boundaryIndex  *geofence.Index
	monitorHub     *broadcast.Hub
)

func Init(e *engine.Engine, ix *geofence.Index, hub *broadcast.Hub) {
	boundaryEngine = e
	boundaryIndex = ix
	monitorHub = hub
}
