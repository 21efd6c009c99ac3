package models

import (
	"gorm.io/gorm"
)

// Tracker is a physical GPS device installed on a boat.
type Tracker struct {
	gorm.Model
	Serial string `json:"serial" gorm:"uniqueIndex"` // device identifier printed on the unit
	BoatID uint   `json:"boat_id" gorm:"index"`
	Boat   *Boat  `gorm:"foreignKey:BoatID" json:"boat,omitempty"`

	// Municipality the tracker was issued by; second candidate for home waters
	Municipality string `json:"municipality"`
	Status       string `json:"status" gorm:"default:active"` // "active", "retired"
}
