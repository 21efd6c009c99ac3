package models

import (
	"time"

	"gorm.io/gorm"
)

// Connectivity states for a tracker. "reconnected" labels the transition
// back into online from offline/reconnecting; it is still an online session.
const (
	TrackerUnknown      = "unknown"
	TrackerOnline       = "online"
	TrackerReconnecting = "reconnecting"
	TrackerReconnected  = "reconnected"
	TrackerOffline      = "offline"
)

// TrackerStatusEvent stores connectivity transitions only. Repeated fixes in
// the same state write nothing; the current status of a tracker is the
// latest event for it, or "unknown" if none exists.
type TrackerStatusEvent struct {
	gorm.Model
	TrackerSerial string `json:"tracker_serial" gorm:"index:idx_status_tracker_ts,priority:1"`
	EntityKey     string `json:"entity_key" gorm:"index"`
	MFBRNumber    string `json:"mfbr_number"`

	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status"`

	Timestamp time.Time `json:"timestamp" gorm:"index:idx_status_tracker_ts,priority:2,sort:desc"`

	// Start of the current online streak; carried forward while online
	SessionStart *time.Time `json:"session_start"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// IsOnline reports whether the state counts as an online session.
func (e *TrackerStatusEvent) IsOnline() bool {
	return e.Status == TrackerOnline || e.Status == TrackerReconnected
}
