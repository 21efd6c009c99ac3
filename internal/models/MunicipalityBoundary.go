package models

import (
	"gorm.io/gorm"
)

const (
	BoundaryKindWater = "water"
	BoundaryKindLand  = "land"
)

// MunicipalityBoundary stores a named polygon (GeoJSON geometry bytes) for a
// municipality's water or land area. At most one authoritative polygon per
// (name, kind). Read-mostly; the geofence index reloads wholesale on change.
type MunicipalityBoundary struct {
	gorm.Model
	Name string `json:"name" gorm:"uniqueIndex:idx_boundary_name_kind,priority:1"`
	Kind string `json:"kind" gorm:"uniqueIndex:idx_boundary_name_kind,priority:2"` // "water" or "land"

	// GeoJSON geometry (Polygon or MultiPolygon), parsed with go-geom
	Geometry []byte `json:"geometry" gorm:"type:jsonb"`
}
