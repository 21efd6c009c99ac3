package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"bantay_tracker/internal/config"
	"bantay_tracker/internal/geofence"
	"bantay_tracker/internal/models"
	"bantay_tracker/internal/sms"
)

// In-memory Store with the same conditional-write semantics as the Postgres
// implementation, so engine invariants can be exercised without a database.
type fakeStore struct {
	mu sync.Mutex

	positions    []models.Position
	crossings    []*models.BoundaryCrossing
	violations   []*models.ViolationNotification
	statusEvents []*models.TrackerStatusEvent

	nextID uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (s *fakeStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) SavePosition(p *models.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	s.positions = append(s.positions, *p)
	return nil
}

func (s *fakeStore) LatestPositionBefore(entityKey string, notAfter time.Time, window time.Duration, excludeLat, excludeLng float64) (*models.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.Position
	earliest := notAfter.Add(-window)
	for i := range s.positions {
		p := s.positions[i]
		if p.EntityKey != entityKey || p.Timestamp.After(notAfter) || p.Timestamp.Before(earliest) {
			continue
		}
		if p.Latitude == excludeLat && p.Longitude == excludeLng {
			continue
		}
		if best == nil || p.Timestamp.After(best.Timestamp) {
			cp := p
			best = &cp
		}
	}
	return best, nil
}

func (s *fakeStore) PreviousPosition(entityKey string, before time.Time) (*models.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.Position
	for i := range s.positions {
		p := s.positions[i]
		if p.EntityKey != entityKey || !p.Timestamp.Before(before) {
			continue
		}
		if best == nil || p.Timestamp.After(best.Timestamp) {
			cp := p
			best = &cp
		}
	}
	return best, nil
}

func (s *fakeStore) PositionsSince(entityKey string, since time.Time, limit int) ([]models.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Position
	for _, p := range s.positions {
		if p.EntityKey == entityKey && !p.Timestamp.Before(since) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) RecentCrossingExists(entityKey, from, to string, since time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.crossings {
		if c.EntityKey == entityKey && c.FromMunicipality == from && c.ToMunicipality == to &&
			!c.CrossingTimestamp.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) CreateOpenCrossing(c *models.BoundaryCrossing) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.crossings {
		if existing.EntityKey == c.EntityKey && existing.ToMunicipality == c.ToMunicipality &&
			existing.Status == models.CrossingOpen {
			return false, nil
		}
	}
	c.ID = s.id()
	cp := *c
	s.crossings = append(s.crossings, &cp)
	return true, nil
}

func (s *fakeStore) RecordCrossing(c *models.BoundaryCrossing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	cp := *c
	s.crossings = append(s.crossings, &cp)
	return nil
}

func (s *fakeStore) OpenCrossings(entityKey string) ([]models.BoundaryCrossing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.BoundaryCrossing
	for _, c := range s.crossings {
		if c.EntityKey == entityKey && c.Status == models.CrossingOpen {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CrossingTimestamp.Before(out[j].CrossingTimestamp) })
	return out, nil
}

func (s *fakeStore) OpenCrossingExists(entityKey, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.crossings {
		if c.EntityKey == entityKey && c.ToMunicipality == to && c.Status == models.CrossingOpen {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) ResolveCrossing(id uint, newStatus string, resolution []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.crossings {
		if c.ID == id {
			if c.Status != models.CrossingOpen {
				return false, nil
			}
			c.Status = newStatus
			c.Resolution = resolution
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) UpdateCrossingResolution(id uint, resolution []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.crossings {
		if c.ID == id {
			c.Resolution = resolution
			return nil
		}
	}
	return nil
}

func (s *fakeStore) SameDayViolationExists(entityKey, mfbr, from, to string, onDay time.Time, loc *time.Location) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	day := onDay.In(loc)
	for _, v := range s.violations {
		if v.FromMunicipality != from || v.ToMunicipality != to {
			continue
		}
		if v.EntityKey != entityKey && (mfbr == "" || v.MFBRNumber != mfbr) {
			continue
		}
		existing := v.ViolationTimestamp.In(loc)
		if existing.Year() == day.Year() && existing.YearDay() == day.YearDay() {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) CreateViolation(n *models.ViolationNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ViolationDay != "" {
		for _, v := range s.violations {
			if v.EntityKey == n.EntityKey && v.FromMunicipality == n.FromMunicipality &&
				v.ToMunicipality == n.ToMunicipality && v.ViolationDay == n.ViolationDay {
				return errors.New(`duplicate key value violates unique constraint "idx_violation_route_day"`)
			}
		}
	}
	n.ID = s.id()
	s.violations = append(s.violations, n)
	return nil
}

func (s *fakeStore) LatestPendingViolation(entityKey, from, to string) (*models.ViolationNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.ViolationNotification
	for _, v := range s.violations {
		if v.EntityKey == entityKey && v.FromMunicipality == from && v.ToMunicipality == to &&
			v.Status == models.NotificationPending {
			if best == nil || v.ID > best.ID {
				best = v
			}
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (s *fakeStore) ActiveViolationExists(entityKey, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.violations {
		if v.EntityKey == entityKey && v.ToMunicipality == to && v.Status == models.NotificationPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) UpdateViolationLive(id uint, lat, lng float64, dwellSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.violations {
		if v.ID == id {
			v.CurrentLat = lat
			v.CurrentLng = lng
			v.DwellDuration = dwellSeconds
		}
	}
	return nil
}

func (s *fakeStore) ClearViolations(entityKey string) ([]models.ViolationNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cleared []models.ViolationNotification
	for _, v := range s.violations {
		if v.EntityKey == entityKey && v.Status == models.NotificationPending {
			v.Status = models.NotificationCleared
			cleared = append(cleared, *v)
		}
	}
	return cleared, nil
}

func (s *fakeStore) MarkViolationDispatch(id uint, smsSent bool, smsResponse []byte, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.violations {
		if v.ID == id {
			v.SMSSent = smsSent
			v.SMSResponse = smsResponse
			v.PhoneNumber = phone
		}
	}
	return nil
}

func (s *fakeStore) MarkViolationBroadcast(id uint, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.violations {
		if v.ID == id {
			if v.BroadcastAt != nil {
				return false, nil
			}
			ts := at
			v.BroadcastAt = &ts
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) LastStatusEvent(trackerSerial string) (*models.TrackerStatusEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.TrackerStatusEvent
	for _, e := range s.statusEvents {
		if e.TrackerSerial != trackerSerial {
			continue
		}
		if best == nil || e.Timestamp.After(best.Timestamp) {
			best = e
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (s *fakeStore) CreateStatusEvent(e *models.TrackerStatusEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.id()
	cp := *e
	s.statusEvents = append(s.statusEvents, &cp)
	return nil
}

func (s *fakeStore) crossingByID(id uint) *models.BoundaryCrossing {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.crossings {
		if c.ID == id {
			cp := *c
			return &cp
		}
	}
	return nil
}

type fakeRegistry struct {
	info *EntityInfo
	err  error
}

func (r *fakeRegistry) Resolve(mfbr, trackerSerial string) (*EntityInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	cp := *r.info
	return &cp, nil
}

type publishedEvent struct {
	Channel string
	Type    string
	Payload map[string]interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) Publish(ctx context.Context, channel, eventType string, payload map[string]interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Channel: channel, Type: eventType, Payload: payload})
	return nil
}

func (p *fakePublisher) byType(eventType string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, ev := range p.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

type fakeSender struct {
	mu     sync.Mutex
	calls  int
	phones []string
	result sms.Result
}

func (s *fakeSender) Send(ctx context.Context, phone, message string) sms.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.phones = append(s.phones, phone)
	res := s.result
	if res.Provider == "" {
		res = sms.Result{Success: true, Provider: "fake", ProviderID: "1", Timestamp: time.Now()}
	}
	return res
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Two adjacent coastal squares plus an inland square, mirroring the shapes
// used by the geofence tests. Masinloc is home waters in most scenarios.
func testIndex() *geofence.Index {
	return geofence.NewIndex(func() ([]geofence.Boundary, error) {
		return []geofence.Boundary{
			{Name: "Masinloc", Kind: "water", Geometry: []byte(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`)},
			{Name: "Santa Cruz", Kind: "water", Geometry: []byte(`{"type":"Polygon","coordinates":[[[1,0],[2,0],[2,1],[1,1],[1,0]]]}`)},
			{Name: "Iba", Kind: "land", Geometry: []byte(`{"type":"Polygon","coordinates":[[[3,0],[4,0],[4,1],[3,1],[3,0]]]}`)},
		}, nil
	}, 0.0002)
}

func testSettings() *config.Settings {
	return &config.Settings{
		DwellThreshold:     15 * time.Minute,
		RecencyWindow:      60 * time.Minute,
		RecrossWindow:      30 * time.Minute,
		EdgeToleranceDeg:   0.0002,
		MaxResolvedPerFix:  5,
		OnlineGap:          240 * time.Second,
		OfflineGap:         480 * time.Second,
		SeedBackdateWindow: 6 * time.Hour,
		DispatchTimeout:    time.Second,
		Location:           time.UTC,
	}
}

type testHarness struct {
	engine   *Engine
	store    *fakeStore
	registry *fakeRegistry
	pub      *fakePublisher
	sender   *fakeSender
	clock    *fakeClock
}

func newTestHarness() *testHarness {
	store := newFakeStore()
	registry := &fakeRegistry{info: &EntityInfo{
		EntityKey:          "MFBR-001",
		MFBRNumber:         "MFBR-001",
		TrackerSerial:      "TRK-1",
		BoatName:           "Bantay Dagat 1",
		OwnerName:          "Juan Dela Cruz",
		RegistrationNumber: "FF-0001",
		ContactName:        "Maria Dela Cruz",
		PhoneNumber:        "+639171234567",
		HomeCandidates:     []string{"Masinloc"},
	}}
	pub := &fakePublisher{}
	sender := &fakeSender{}
	clock := &fakeClock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}

	settings := testSettings()
	dispatcher := NewDispatcher(sender, pub, store, settings.DispatchTimeout)
	eng := New(store, registry, testIndex(), dispatcher, settings)
	eng.now = clock.Now

	return &testHarness{
		engine:   eng,
		store:    store,
		registry: registry,
		pub:      pub,
		sender:   sender,
		clock:    clock,
	}
}

// Coordinates well inside each test square, as (lat, lng).
const (
	masinlocLat  = 0.5
	masinlocLng  = 0.5
	santaCruzLat = 0.5
	santaCruzLng = 1.5
)

func (h *testHarness) ingest(lat, lng float64) (*IngestResult, error) {
	return h.engine.Ingest(context.Background(), Fix{
		MFBRNumber:    "MFBR-001",
		TrackerSerial: "TRK-1",
		Latitude:      lat,
		Longitude:     lng,
		Timestamp:     h.clock.Now(),
	})
}
