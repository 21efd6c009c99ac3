package models

import (
	"time"

	"gorm.io/gorm"
)

// DeviceToken is a per-device bearer token for the position ingest endpoint.
type DeviceToken struct {
	gorm.Model
	Name       string     `json:"name"`
	Token      string     `json:"token" gorm:"uniqueIndex;size:64"`
	TrackerID  uint       `json:"tracker_id" gorm:"index"`
	Tracker    *Tracker   `gorm:"foreignKey:TrackerID" json:"tracker,omitempty"`
	IsActive   bool       `json:"is_active" gorm:"default:true"`
	LastSeenAt *time.Time `json:"last_seen_at" gorm:"index"`
}
