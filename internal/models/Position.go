package models

import (
	"time"

	"gorm.io/gorm"
)

// Position is a single GPS fix. Append-only; rows are never mutated.
// EntityKey is the canonical tracked-entity key resolved once at the
// ingestion boundary (MFBR number preferred, tracker serial otherwise).
type Position struct {
	gorm.Model
	EntityKey     string    `json:"entity_key" gorm:"index:idx_positions_entity_ts,priority:1"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	MFBRNumber    string    `json:"mfbr_number"`
	TrackerSerial string    `json:"tracker_serial"`
	Timestamp     time.Time `json:"timestamp" gorm:"index:idx_positions_entity_ts,priority:2,sort:desc"`
}
