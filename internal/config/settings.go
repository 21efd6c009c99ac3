package config

import (
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Settings holds the engine tunables. Built once at startup; read-only after.
type Settings struct {
	// Minimum stay in a foreign municipality before a violation is raised
	DwellThreshold time.Duration

	// How far back to look for the previous fix when detecting a crossing
	RecencyWindow time.Duration

	// Window in which a repeat (entity, from, to) crossing is treated as
	// GPS jitter and suppressed
	RecrossWindow time.Duration

	// Distance tolerance (in degrees) for border-adjacent points
	EdgeToleranceDeg float64

	// Cap on open pending crossings resolved per ingested fix
	MaxResolvedPerFix int

	// Inter-fix gap thresholds for the connectivity state machine
	OnlineGap  time.Duration // gap <= OnlineGap   -> online
	OfflineGap time.Duration // gap >  OfflineGap  -> offline, else reconnecting

	// How far back to scan when backdating a seeded pending crossing
	SeedBackdateWindow time.Duration

	// Bound on SMS/broadcast side effects
	DispatchTimeout time.Duration

	// Local timezone for the per-day violation cooldown window
	Location *time.Location
}

// LoadSettings reads engine tunables from the environment, falling back to
// the documented defaults. Call after InitDB so .env is already loaded.
func LoadSettings() *Settings {
	loc, err := time.LoadLocation(getEnv("DB_TIMEZONE", "Asia/Manila"))
	if err != nil {
		logrus.WithError(err).Warn("Invalid DB_TIMEZONE, falling back to UTC for cooldown windows")
		loc = time.UTC
	}

	return &Settings{
		DwellThreshold:     envDuration("BOUNDARY_DWELL_MINUTES", 15) * time.Minute,
		RecencyWindow:      envDuration("BOUNDARY_RECENCY_MINUTES", 60) * time.Minute,
		RecrossWindow:      envDuration("BOUNDARY_RECROSS_MINUTES", 30) * time.Minute,
		EdgeToleranceDeg:   envFloat("BOUNDARY_EDGE_TOLERANCE_DEG", 0.00020), // ~22m
		MaxResolvedPerFix:  envInt("BOUNDARY_MAX_RESOLVED_PER_FIX", 5),
		OnlineGap:          envDuration("TRACKER_ONLINE_GAP_SECONDS", 240) * time.Second,
		OfflineGap:         envDuration("TRACKER_OFFLINE_GAP_SECONDS", 480) * time.Second,
		SeedBackdateWindow: envDuration("BOUNDARY_SEED_BACKDATE_HOURS", 6) * time.Hour,
		DispatchTimeout:    envDuration("DISPATCH_TIMEOUT_SECONDS", 10) * time.Second,
		Location:           loc,
	}
}

func envInt(key string, def int) int {
	if v := getEnv(key, ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		logrus.Warnf("Ignoring non-integer value for %s", key)
	}
	return def
}

func envDuration(key string, def int) time.Duration {
	return time.Duration(envInt(key, def))
}

func envFloat(key string, def float64) float64 {
	if v := getEnv(key, ""); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		logrus.Warnf("Ignoring non-numeric value for %s", key)
	}
	return def
}
