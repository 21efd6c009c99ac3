package engine

import (
	"context"
	"time"

	"bantay_tracker/internal/models"
)

// CrossingEvent is emitted by the detector when an entity's classified
// municipality differs from its previous one.
type CrossingEvent struct {
	EntityKey        string
	FromMunicipality string
	ToMunicipality   string
	FromLat          float64
	FromLng          float64
	ToLat            float64
	ToLng            float64
	Timestamp        time.Time
}

// EntityInfo is the registry snapshot for a tracked entity: display data for
// violation records plus the home-municipality candidates in preference
// order (boat registered, tracker configured, fisherfolk address).
type EntityInfo struct {
	EntityKey          string
	MFBRNumber         string
	TrackerSerial      string
	BoatName           string
	OwnerName          string
	RegistrationNumber string
	ContactName        string
	PhoneNumber        string
	HomeCandidates     []string
}

// Store is the persistence contract the engine runs against. Implementations
// must provide the conditional-write semantics each method documents; the
// engine's uniqueness invariants depend on them.
type Store interface {
	SavePosition(p *models.Position) error

	// LatestPositionBefore returns the entity's most recent fix at or before
	// notAfter within the recency window, excluding fixes at exactly the
	// given coordinates. Returns (nil, nil) when none exists.
	LatestPositionBefore(entityKey string, notAfter time.Time, window time.Duration, excludeLat, excludeLng float64) (*models.Position, error)

	// PositionsSince returns the entity's fixes after since, oldest first.
	PositionsSince(entityKey string, since time.Time, limit int) ([]models.Position, error)

	// PreviousPosition returns the entity's most recent fix strictly before
	// the given instant, or (nil, nil) when none exists. Unlike
	// LatestPositionBefore there is no recency window and no coordinate
	// exclusion; the connectivity state machine measures inter-fix gaps
	// with it.
	PreviousPosition(entityKey string, before time.Time) (*models.Position, error)

	RecentCrossingExists(entityKey, from, to string, since time.Time) (bool, error)

	// CreateOpenCrossing inserts an open pending crossing. Returns false
	// without error when an open crossing for the same (entity, destination)
	// already exists — the insert must be conditional, not read-then-write.
	CreateOpenCrossing(c *models.BoundaryCrossing) (bool, error)

	// RecordCrossing inserts a crossing row unconditionally. Used for
	// audit rows that are born already resolved (e.g. duplicates).
	RecordCrossing(c *models.BoundaryCrossing) error

	OpenCrossings(entityKey string) ([]models.BoundaryCrossing, error)
	OpenCrossingExists(entityKey, to string) (bool, error)

	// ResolveCrossing flips an open crossing to newStatus. Returns false when
	// the row was no longer open — the caller lost the race and must not
	// perform the transition's side effects.
	ResolveCrossing(id uint, newStatus string, resolution []byte) (bool, error)

	// UpdateCrossingResolution rewrites the resolution payload of an
	// already-resolved crossing (final dispatch results, for audit).
	UpdateCrossingResolution(id uint, resolution []byte) error

	SameDayViolationExists(entityKey, mfbr, from, to string, onDay time.Time, loc *time.Location) (bool, error)
	CreateViolation(n *models.ViolationNotification) error
	LatestPendingViolation(entityKey, from, to string) (*models.ViolationNotification, error)
	ActiveViolationExists(entityKey, to string) (bool, error)
	UpdateViolationLive(id uint, lat, lng float64, dwellSeconds int) error

	// ClearViolations flips all pending notifications for the entity to
	// cleared and returns the affected rows.
	ClearViolations(entityKey string) ([]models.ViolationNotification, error)

	MarkViolationDispatch(id uint, smsSent bool, smsResponse []byte, phone string) error

	// MarkViolationBroadcast sets the already-broadcast marker. Returns false
	// when the notification was already broadcast.
	MarkViolationBroadcast(id uint, at time.Time) (bool, error)

	LastStatusEvent(trackerSerial string) (*models.TrackerStatusEvent, error)
	CreateStatusEvent(e *models.TrackerStatusEvent) error
}

// Registry provides read access to boat/tracker/fisherfolk records.
type Registry interface {
	// Resolve builds the snapshot for an entity from its MFBR number and/or
	// tracker serial. Missing records are not an error; the returned info
	// just has fewer fields filled in.
	Resolve(mfbr, trackerSerial string) (*EntityInfo, error)
}

// Publisher is the live-update collaborator contract.
type Publisher interface {
	Publish(ctx context.Context, channel, eventType string, payload map[string]interface{}) error
}
