package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bantay_tracker/internal/models"
)

func TestIngestRequiresIdentifier(t *testing.T) {
	h := newTestHarness()

	_, err := h.engine.Ingest(context.Background(), Fix{Latitude: masinlocLat, Longitude: masinlocLng})
	assert.Error(t, err)
}

func TestFirstFixNoCrossing(t *testing.T) {
	h := newTestHarness()

	res, err := h.ingest(masinlocLat, masinlocLng)
	require.NoError(t, err)

	assert.Equal(t, "MFBR-001", res.EntityKey)
	assert.Equal(t, "Masinloc", res.Municipality)
	assert.False(t, res.CrossingDetected)
	assert.False(t, res.Pending)
	assert.Equal(t, models.TrackerOnline, res.ConnectivityStatus)
	assert.Empty(t, h.store.crossings)
}

func TestCrossingCreatesPendingCrossing(t *testing.T) {
	h := newTestHarness()

	_, err := h.ingest(masinlocLat, masinlocLng)
	require.NoError(t, err)

	h.clock.Advance(2 * time.Minute)
	res, err := h.ingest(santaCruzLat, santaCruzLng)
	require.NoError(t, err)

	assert.True(t, res.CrossingDetected)
	assert.True(t, res.Pending)
	assert.False(t, res.DwellAlertSent)

	open, err := h.store.OpenCrossings("MFBR-001")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "Masinloc", open[0].FromMunicipality)
	assert.Equal(t, "Santa Cruz", open[0].ToMunicipality)
	assert.Equal(t, h.clock.Now(), open[0].CrossingTimestamp)
}

func TestDwellBelowThresholdNoViolation(t *testing.T) {
	h := newTestHarness()

	_, err := h.ingest(masinlocLat, masinlocLng)
	require.NoError(t, err)
	h.clock.Advance(2 * time.Minute)
	_, err = h.ingest(santaCruzLat, santaCruzLng)
	require.NoError(t, err)

	h.clock.Advance(10 * time.Minute)
	res, err := h.ingest(0.52, 1.52)
	require.NoError(t, err)

	assert.False(t, res.DwellAlertSent)
	assert.False(t, res.Beep)
	assert.Empty(t, h.store.violations)

	open, _ := h.store.OpenCrossings("MFBR-001")
	assert.Len(t, open, 1, "pending crossing must stay open below the dwell threshold")
}

func TestDwellThresholdExceededCreatesViolation(t *testing.T) {
	h := newTestHarness()

	_, err := h.ingest(masinlocLat, masinlocLng)
	require.NoError(t, err)
	h.clock.Advance(2 * time.Minute)
	_, err = h.ingest(santaCruzLat, santaCruzLng)
	require.NoError(t, err)
	crossedAt := h.clock.Now()

	h.clock.Advance(16 * time.Minute)
	res, err := h.ingest(0.53, 1.53)
	require.NoError(t, err)

	assert.True(t, res.DwellAlertSent)
	assert.True(t, res.Beep)

	require.Len(t, h.store.violations, 1)
	v := h.store.violations[0]
	assert.Equal(t, models.NotificationPending, v.Status)
	assert.Equal(t, "Bantay Dagat 1", v.BoatName)
	assert.Equal(t, "MFBR-001", v.MFBRNumber)
	assert.Equal(t, "Masinloc", v.FromMunicipality)
	assert.Equal(t, "Santa Cruz", v.ToMunicipality)
	assert.Equal(t, crossedAt, v.ViolationTimestamp, "violation timestamp is the crossing moment, not evaluation time")
	assert.Equal(t, "2025-03-10", v.ViolationDay, "local calendar day stamped for the per-day uniqueness key")
	assert.True(t, v.SMSSent)
	assert.NotNil(t, v.BroadcastAt)

	assert.Equal(t, 1, h.sender.calls)
	assert.Equal(t, []string{"+639171234567"}, h.sender.phones)
	assert.Len(t, h.pub.byType("boundary_notification"), 1)

	open, _ := h.store.OpenCrossings("MFBR-001")
	assert.Empty(t, open)
}

func TestDwellBoundaryExact(t *testing.T) {
	h := newTestHarness()

	_, err := h.ingest(masinlocLat, masinlocLng)
	require.NoError(t, err)
	h.clock.Advance(2 * time.Minute)
	_, err = h.ingest(santaCruzLat, santaCruzLng)
	require.NoError(t, err)

	// One second short of the threshold: still pending
	h.clock.Advance(15*time.Minute - time.Second)
	res, err := h.ingest(0.52, 1.52)
	require.NoError(t, err)
	assert.False(t, res.DwellAlertSent)
	assert.Empty(t, h.store.violations)

	// Exactly at the threshold: violation fires
	h.clock.Advance(time.Second)
	res, err = h.ingest(0.53, 1.53)
	require.NoError(t, err)
	assert.True(t, res.DwellAlertSent)
	assert.Len(t, h.store.violations, 1)
}

func TestHomeReturnClearsPendingBeforeThreshold(t *testing.T) {
	h := newTestHarness()

	_, err := h.ingest(masinlocLat, masinlocLng)
	require.NoError(t, err)
	h.clock.Advance(2 * time.Minute)
	_, err = h.ingest(santaCruzLat, santaCruzLng)
	require.NoError(t, err)

	h.clock.Advance(5 * time.Minute)
	_, err = h.ingest(0.51, 0.51)
	require.NoError(t, err)

	assert.Empty(t, h.store.violations, "return before the threshold must not raise a violation")
	assert.Equal(t, 0, h.sender.calls)

	open, _ := h.store.OpenCrossings("MFBR-001")
	assert.Empty(t, open)
	for _, c := range h.store.crossings {
		assert.NotEqual(t, models.CrossingResolvedDwelled, c.Status)
	}
}

func TestHomeReturnClearsActiveViolation(t *testing.T) {
	h := newTestHarness()

	_, err := h.ingest(masinlocLat, masinlocLng)
	require.NoError(t, err)
	h.clock.Advance(2 * time.Minute)
	_, err = h.ingest(santaCruzLat, santaCruzLng)
	require.NoError(t, err)
	h.clock.Advance(16 * time.Minute)
	_, err = h.ingest(0.53, 1.53)
	require.NoError(t, err)
	require.Len(t, h.store.violations, 1)

	h.clock.Advance(5 * time.Minute)
	_, err = h.ingest(0.51, 0.51)
	require.NoError(t, err)

	assert.Equal(t, models.NotificationCleared, h.store.violations[0].Status)
	assert.Len(t, h.pub.byType("violation_cleared"), 1)

	open, _ := h.store.OpenCrossings("MFBR-001")
	assert.Empty(t, open)
}

func TestSameDayCooldownSuppressesSecondViolation(t *testing.T) {
	h := newTestHarness()
	now := h.clock.Now()

	// A violation for the same route earlier today
	require.NoError(t, h.store.CreateViolation(&models.ViolationNotification{
		EntityKey:          "MFBR-001",
		MFBRNumber:         "MFBR-001",
		FromMunicipality:   "Masinloc",
		ToMunicipality:     "Santa Cruz",
		ViolationTimestamp: now.Add(-2 * time.Hour),
		Status:             models.NotificationRead,
	}))

	created, err := h.store.CreateOpenCrossing(&models.BoundaryCrossing{
		EntityKey:         "MFBR-001",
		FromMunicipality:  "Masinloc",
		ToMunicipality:    "Santa Cruz",
		CrossingTimestamp: now.Add(-20 * time.Minute),
		Status:            models.CrossingOpen,
	})
	require.NoError(t, err)
	require.True(t, created)

	res, err := h.ingest(santaCruzLat, santaCruzLng)
	require.NoError(t, err)

	assert.True(t, res.Cooldown)
	assert.False(t, res.DwellAlertSent)
	assert.Len(t, h.store.violations, 1, "no second violation for the same route on the same day")
	assert.Equal(t, 0, h.sender.calls)

	// The crossing is still consumed, not retried forever
	open, _ := h.store.OpenCrossings("MFBR-001")
	assert.Empty(t, open)
}

func TestRaceLoserRefreshesWinningViolation(t *testing.T) {
	h := newTestHarness()
	now := h.clock.Now()

	// Simulates a concurrent materialization that commits between this
	// attempt's cooldown check and its insert: the cooldown query misses the
	// winner, but the per-day unique index rejects the second insert.
	winner := &models.ViolationNotification{
		EntityKey:          "MFBR-001",
		MFBRNumber:         "MFBR-001",
		FromMunicipality:   "Masinloc",
		ToMunicipality:     "Santa Cruz",
		ViolationTimestamp: now.Add(-26 * time.Hour),
		ViolationDay:       now.Format("2006-01-02"),
		Status:             models.NotificationPending,
	}
	require.NoError(t, h.store.CreateViolation(winner))

	created, err := h.store.CreateOpenCrossing(&models.BoundaryCrossing{
		EntityKey:         "MFBR-001",
		FromMunicipality:  "Masinloc",
		ToMunicipality:    "Santa Cruz",
		CrossingTimestamp: now.Add(-20 * time.Minute),
		Status:            models.CrossingOpen,
	})
	require.NoError(t, err)
	require.True(t, created)

	res, err := h.ingest(santaCruzLat, santaCruzLng)
	require.NoError(t, err)

	assert.False(t, res.DwellAlertSent, "losing the create race must not re-alert")
	assert.Len(t, h.store.violations, 1)
	assert.Equal(t, santaCruzLat, winner.CurrentLat)
	assert.Equal(t, santaCruzLng, winner.CurrentLng)
	assert.Equal(t, 0, h.sender.calls)
	assert.Len(t, h.pub.byType("notification_update"), 1)
}

func TestViolationDayUniquenessBlocksSecondInsert(t *testing.T) {
	h := newTestHarness()

	first := &models.ViolationNotification{
		EntityKey:        "MFBR-001",
		FromMunicipality: "Masinloc",
		ToMunicipality:   "Santa Cruz",
		ViolationDay:     "2025-03-10",
		Status:           models.NotificationPending,
	}
	require.NoError(t, h.store.CreateViolation(first))

	second := &models.ViolationNotification{
		EntityKey:        "MFBR-001",
		FromMunicipality: "Masinloc",
		ToMunicipality:   "Santa Cruz",
		ViolationDay:     "2025-03-10",
		Status:           models.NotificationRead,
	}
	assert.Error(t, h.store.CreateViolation(second),
		"one violation per (entity, route, day) regardless of status")

	second.ViolationDay = "2025-03-11"
	assert.NoError(t, h.store.CreateViolation(second))
}

func TestDuplicateCrossingKeptAsAuditRow(t *testing.T) {
	h := newTestHarness()
	now := h.clock.Now()

	ev := &CrossingEvent{
		EntityKey:        "MFBR-001",
		FromMunicipality: "Masinloc",
		ToMunicipality:   "Santa Cruz",
		Timestamp:        now,
	}
	created, err := h.engine.registerCrossing(ev)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = h.engine.registerCrossing(ev)
	require.NoError(t, err)
	assert.False(t, created)

	open, _ := h.store.OpenCrossings("MFBR-001")
	assert.Len(t, open, 1)

	var duplicates int
	for _, c := range h.store.crossings {
		if c.Status == models.CrossingResolvedDuplicate {
			duplicates++
		}
	}
	assert.Equal(t, 1, duplicates)
}

func TestRecrossSuppression(t *testing.T) {
	h := newTestHarness()

	_, err := h.ingest(masinlocLat, masinlocLng)
	require.NoError(t, err)
	h.clock.Advance(2 * time.Minute)
	res, err := h.ingest(santaCruzLat, santaCruzLng)
	require.NoError(t, err)
	require.True(t, res.CrossingDetected)

	h.clock.Advance(2 * time.Minute)
	_, err = h.ingest(0.51, 0.51) // back home, clears the pending
	require.NoError(t, err)

	// Crossing the same border again minutes later reads as jitter
	h.clock.Advance(2 * time.Minute)
	res, err = h.ingest(0.52, 1.52)
	require.NoError(t, err)
	assert.False(t, res.CrossingDetected, "repeat crossing within the suppression window")
}

func TestMaxPendingCrossingsPerFix(t *testing.T) {
	h := newTestHarness()
	now := h.clock.Now()

	zones := []string{"Zone 1", "Zone 2", "Zone 3", "Zone 4", "Zone 5", "Zone 6", "Zone 7"}
	for i, zone := range zones {
		created, err := h.store.CreateOpenCrossing(&models.BoundaryCrossing{
			EntityKey:         "MFBR-001",
			FromMunicipality:  "Masinloc",
			ToMunicipality:    zone,
			CrossingTimestamp: now.Add(-30*time.Minute + time.Duration(i)*time.Second),
			Status:            models.CrossingOpen,
		})
		require.NoError(t, err)
		require.True(t, created)
	}

	_, err := h.ingest(santaCruzLat, santaCruzLng)
	require.NoError(t, err)

	assert.Len(t, h.store.violations, 5, "per-fix work is capped")
	assert.Equal(t, 5, h.sender.calls)

	open, _ := h.store.OpenCrossings("MFBR-001")
	// Two zone crossings deferred to the next fix, plus the one seeded for
	// the current municipality
	assert.Len(t, open, 3)
}

func TestSeededCrossingBackdatesDwell(t *testing.T) {
	h := newTestHarness()
	firstSeen := h.clock.Now()

	// First fix ever is already outside home waters
	res, err := h.ingest(santaCruzLat, santaCruzLng)
	require.NoError(t, err)
	assert.False(t, res.CrossingDetected)

	open, _ := h.store.OpenCrossings("MFBR-001")
	require.Len(t, open, 1, "pending crossing seeded from home to current municipality")
	assert.Equal(t, "Masinloc", open[0].FromMunicipality)
	assert.Equal(t, "Santa Cruz", open[0].ToMunicipality)
	assert.Equal(t, firstSeen, open[0].CrossingTimestamp)

	h.clock.Advance(16 * time.Minute)
	res, err = h.ingest(0.52, 1.52)
	require.NoError(t, err)

	assert.True(t, res.DwellAlertSent)
	require.Len(t, h.store.violations, 1)
	assert.Equal(t, firstSeen, h.store.violations[0].ViolationTimestamp,
		"dwell accrues from the first fix seen in the municipality")
}

func TestRegistryFailureStillIngests(t *testing.T) {
	h := newTestHarness()
	h.registry.err = assert.AnError

	res, err := h.ingest(masinlocLat, masinlocLng)
	require.NoError(t, err)

	assert.Equal(t, "Masinloc", res.Municipality)
	assert.Len(t, h.store.positions, 1)
}

func TestMissingPhoneSkipsSMSButStillBroadcasts(t *testing.T) {
	h := newTestHarness()
	h.registry.info.PhoneNumber = ""

	_, err := h.ingest(masinlocLat, masinlocLng)
	require.NoError(t, err)
	h.clock.Advance(2 * time.Minute)
	_, err = h.ingest(santaCruzLat, santaCruzLng)
	require.NoError(t, err)
	h.clock.Advance(16 * time.Minute)
	res, err := h.ingest(0.53, 1.53)
	require.NoError(t, err)

	assert.True(t, res.DwellAlertSent)
	require.Len(t, h.store.violations, 1)
	assert.False(t, h.store.violations[0].SMSSent)
	assert.Equal(t, 0, h.sender.calls)
	assert.Len(t, h.pub.byType("boundary_notification"), 1,
		"SMS failure or absence never blocks the dashboard broadcast")
}

func TestDispatchBroadcastExactlyOnce(t *testing.T) {
	h := newTestHarness()

	n := &models.ViolationNotification{
		EntityKey:        "MFBR-001",
		FromMunicipality: "Masinloc",
		ToMunicipality:   "Santa Cruz",
		Status:           models.NotificationPending,
	}
	require.NoError(t, h.store.CreateViolation(n))

	info := h.registry.info
	first := h.engine.dispatcher.DispatchViolation(context.Background(), n, info)
	second := h.engine.dispatcher.DispatchViolation(context.Background(), n, info)

	assert.True(t, first.Broadcast)
	assert.False(t, second.Broadcast)
	assert.Len(t, h.pub.byType("boundary_notification"), 1)
}
