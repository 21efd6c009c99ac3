package models

import (
	"time"

	"gorm.io/gorm"
)

// Pending-crossing lifecycle states. Terminal states are kept for audit,
// never deleted.
const (
	CrossingOpen              = "open"
	CrossingResolvedDwelled   = "resolved-dwelled"
	CrossingResolvedReturned  = "resolved-returned"
	CrossingResolvedDuplicate = "resolved-duplicate"
)

// BoundaryCrossing records a detected municipality change for an entity.
// While Status is "open" it is a pending crossing awaiting dwell evaluation.
// Invariant: at most one open row per (entity_key, to_municipality),
// enforced by a partial unique index created in config.InitDB.
type BoundaryCrossing struct {
	gorm.Model
	EntityKey        string `json:"entity_key" gorm:"index:idx_crossing_entity_ts,priority:1"`
	FromMunicipality string `json:"from_municipality" gorm:"index:idx_crossing_route,priority:1"`
	ToMunicipality   string `json:"to_municipality" gorm:"index:idx_crossing_route,priority:2"`

	FromLat float64 `json:"from_lat"`
	FromLng float64 `json:"from_lng"`
	ToLat   float64 `json:"to_lat"`
	ToLng   float64 `json:"to_lng"`

	CrossingTimestamp time.Time `json:"crossing_timestamp" gorm:"index:idx_crossing_entity_ts,priority:2,sort:desc"`

	Status string `json:"status" gorm:"default:open;index"`

	// Resolution details (skip reason, SMS result, cleared-at), JSON for audit
	Resolution []byte `json:"resolution" gorm:"type:jsonb"`
}
