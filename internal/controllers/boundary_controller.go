package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/twpayne/go-geom"
	geojson "github.com/twpayne/go-geom/encoding/geojson"
	"gorm.io/gorm/clause"

	"bantay_tracker/internal/config"
	"bantay_tracker/internal/geofence"
	"bantay_tracker/internal/models"
)

type boundaryInput struct {
	Name     string          `json:"name" binding:"required"`
	Kind     string          `json:"kind" binding:"required"`
	Geometry json.RawMessage `json:"geometry" binding:"required"`
}

// UpsertBoundary stores or replaces the authoritative polygon for one
// (municipality, kind) pair, then reloads the geofence index so lookups see
// the new geometry immediately.
func UpsertBoundary(c *gin.Context) {
	var input boundaryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Kind != models.BoundaryKindWater && input.Kind != models.BoundaryKindLand {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be 'water' or 'land'"})
		return
	}

	var g geom.T
	if err := geojson.Unmarshal(input.Geometry, &g); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid GeoJSON geometry: " + err.Error()})
		return
	}
	switch g.(type) {
	case *geom.Polygon, *geom.MultiPolygon:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "geometry must be a Polygon or MultiPolygon"})
		return
	}

	boundary := models.MunicipalityBoundary{
		Name:     geofence.Normalize(input.Name),
		Kind:     input.Kind,
		Geometry: input.Geometry,
	}
	err := config.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"geometry", "updated_at"}),
	}).Create(&boundary).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save boundary: " + err.Error()})
		return
	}

	if err := boundaryIndex.Reload(); err != nil {
		logrus.WithError(err).Warn("Boundary saved but index reload failed; lookups use previous set")
	}

	c.JSON(http.StatusCreated, gin.H{"data": boundary})
}

// ListBoundaries returns all stored boundaries without their geometry
// payloads (those run to megabytes for detailed coastlines).
func ListBoundaries(c *gin.Context) {
	var boundaries []models.MunicipalityBoundary
	query := config.DB.Select("id", "created_at", "updated_at", "name", "kind")
	if kind := c.Query("kind"); kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if err := query.Order("name asc").Find(&boundaries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing boundaries: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": boundaries})
}

// GetBoundary returns one boundary including its full geometry.
func GetBoundary(c *gin.Context) {
	var boundary models.MunicipalityBoundary
	if err := config.DB.First(&boundary, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "boundary not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": boundary})
}
