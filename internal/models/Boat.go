package models

import (
	"gorm.io/gorm"
)

// Boat represents a registered fishing vessel. MFBRNumber is the stable
// municipal registration key all engine state is keyed on when available.
type Boat struct {
	gorm.Model
	BoatName     string      `json:"boat_name"`
	MFBRNumber   string      `json:"mfbr_number" gorm:"uniqueIndex"`
	FisherfolkID uint        `json:"fisherfolk_id" gorm:"index"`
	Fisherfolk   *Fisherfolk `gorm:"foreignKey:FisherfolkID" json:"fisherfolk,omitempty"`

	// Registered operating municipality, first candidate for home waters
	RegisteredMunicipality string `json:"registered_municipality"`
	IsActive               bool   `json:"is_active" gorm:"default:true"`
}
