package geofence

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/twpayne/go-geom"
	geojson "github.com/twpayne/go-geom/encoding/geojson"
)

// Boundary is one named polygon handed to the index by its loader.
type Boundary struct {
	Name     string
	Kind     string // "water" or "land"
	Geometry []byte // GeoJSON geometry
}

// LoadFunc supplies the boundary set, typically from the database.
type LoadFunc func() ([]Boundary, error)

// compiledBoundary pairs a parsed polygon with the canonical display name
// lookups should return.
type compiledBoundary struct {
	name string
	geom geom.T
}

// Index answers "which municipality contains this point". It keeps separate
// water and land polygon sets so water boundaries are always preferred, and
// is safe for concurrent lookups; Reload swaps the compiled sets wholesale.
// Set keys are lowercased so name lookups ignore case.
type Index struct {
	load      LoadFunc
	tolerance float64 // degrees; border-adjacent points within this match

	mu     sync.RWMutex
	loaded bool
	water  map[string]compiledBoundary
	land   map[string]compiledBoundary
}

func NewIndex(load LoadFunc, toleranceDeg float64) *Index {
	return &Index{
		load:      load,
		tolerance: toleranceDeg,
		water:     map[string]compiledBoundary{},
		land:      map[string]compiledBoundary{},
	}
}

// Reload rebuilds the compiled polygon sets from the loader. Individual bad
// geometries are skipped with a warning; a failed load leaves the previous
// sets in place.
func (ix *Index) Reload() error {
	rows, err := ix.load()
	if err != nil {
		logrus.WithError(err).Error("Failed to load municipality boundaries")
		return err
	}

	water := map[string]compiledBoundary{}
	land := map[string]compiledBoundary{}
	for _, b := range rows {
		var g geom.T
		if err := geojson.Unmarshal(b.Geometry, &g); err != nil {
			logrus.WithError(err).WithField("municipality", b.Name).Warn("Skipping boundary with invalid geometry")
			continue
		}
		switch g.(type) {
		case *geom.Polygon, *geom.MultiPolygon:
		default:
			logrus.WithField("municipality", b.Name).Warn("Skipping non-polygon boundary geometry")
			continue
		}
		name := Normalize(b.Name)
		entry := compiledBoundary{name: name, geom: g}
		if b.Kind == "land" {
			land[strings.ToLower(name)] = entry
		} else {
			water[strings.ToLower(name)] = entry
		}
	}

	ix.mu.Lock()
	ix.water = water
	ix.land = land
	ix.loaded = true
	ix.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"water": len(water),
		"land":  len(land),
	}).Info("Loaded municipality boundaries")
	return nil
}

// ensureLoaded lazily loads the boundary sets on first use. A failed lazy
// load is logged and leaves the index empty; lookups then return no match
// rather than erroring.
func (ix *Index) ensureLoaded() {
	ix.mu.RLock()
	loaded := ix.loaded
	ix.mu.RUnlock()
	if !loaded {
		_ = ix.Reload()
	}
}

// Locate returns the canonical name of the municipality containing the
// point, or false if no polygon matches. Water polygons are preferred over
// land; boundary-inclusive and tolerance matches are tried before falling
// back to a swapped-axis test that tolerates upstream lat/lng mixups.
func (ix *Index) Locate(lat, lng float64) (string, bool) {
	ix.ensureLoaded()
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	// GeoJSON rings are (x=lng, y=lat)
	x, y := lng, lat

	for _, set := range []map[string]compiledBoundary{ix.water, ix.land} {
		for _, cb := range set {
			if Contains(cb.geom, x, y) {
				return cb.name, true
			}
		}
		for _, cb := range set {
			if Covers(cb.geom, x, y) {
				return cb.name, true
			}
		}
		if ix.tolerance > 0 {
			for _, cb := range set {
				if Distance(cb.geom, x, y) <= ix.tolerance {
					logrus.WithFields(logrus.Fields{
						"municipality": cb.name,
						"tolerance":    ix.tolerance,
					}).Debug("Point matched within border tolerance")
					return cb.name, true
				}
			}
		}
	}

	// Some upstream datasets store rings as (lat, lng); retry with swapped axes.
	for _, set := range []map[string]compiledBoundary{ix.water, ix.land} {
		for _, cb := range set {
			if Covers(cb.geom, y, x) {
				logrus.WithField("municipality", cb.name).Warn("Boundary fallback used: lat/lng swapped polygon match")
				return cb.name, true
			}
		}
		if ix.tolerance > 0 {
			for _, cb := range set {
				if Distance(cb.geom, y, x) <= ix.tolerance {
					logrus.WithField("municipality", cb.name).Warn("Boundary fallback used: swapped coords within tolerance")
					return cb.name, true
				}
			}
		}
	}

	return "", false
}

// IsCoastal reports whether the municipality has a water polygon.
// Alias-safe and case-insensitive.
func (ix *Index) IsCoastal(name string) bool {
	if name == "" {
		return false
	}
	ix.ensureLoaded()
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.water[strings.ToLower(Normalize(name))]
	return ok
}
