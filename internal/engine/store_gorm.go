package engine

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bantay_tracker/internal/models"
)

// GormStore implements the Store contract on Postgres via GORM. The
// conditional writes lean on the partial unique index created in
// config.InitDB and on guarded UPDATE ... WHERE clauses, so the uniqueness
// invariants hold under concurrent ingestion calls.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) SavePosition(p *models.Position) error {
	return s.db.Create(p).Error
}

func (s *GormStore) LatestPositionBefore(entityKey string, notAfter time.Time, window time.Duration, excludeLat, excludeLng float64) (*models.Position, error) {
	var pos models.Position
	err := s.db.
		Where("entity_key = ? AND timestamp <= ? AND timestamp >= ?", entityKey, notAfter, notAfter.Add(-window)).
		Where("NOT (latitude = ? AND longitude = ?)", excludeLat, excludeLng).
		Order("timestamp desc").
		First(&pos).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pos, nil
}

func (s *GormStore) PreviousPosition(entityKey string, before time.Time) (*models.Position, error) {
	var pos models.Position
	err := s.db.
		Where("entity_key = ? AND timestamp < ?", entityKey, before).
		Order("timestamp desc").
		First(&pos).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pos, nil
}

func (s *GormStore) PositionsSince(entityKey string, since time.Time, limit int) ([]models.Position, error) {
	var out []models.Position
	err := s.db.
		Where("entity_key = ? AND timestamp >= ?", entityKey, since).
		Order("timestamp asc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (s *GormStore) RecentCrossingExists(entityKey, from, to string, since time.Time) (bool, error) {
	var count int64
	err := s.db.Model(&models.BoundaryCrossing{}).
		Where("entity_key = ? AND from_municipality = ? AND to_municipality = ? AND crossing_timestamp >= ?",
			entityKey, from, to, since).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) CreateOpenCrossing(c *models.BoundaryCrossing) (bool, error) {
	// The partial unique index on (entity_key, to_municipality) WHERE
	// status='open' makes this insert the atomic check-and-set.
	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(c)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *GormStore) RecordCrossing(c *models.BoundaryCrossing) error {
	return s.db.Create(c).Error
}

func (s *GormStore) OpenCrossings(entityKey string) ([]models.BoundaryCrossing, error) {
	var out []models.BoundaryCrossing
	err := s.db.
		Where("entity_key = ? AND status = ?", entityKey, models.CrossingOpen).
		Order("crossing_timestamp asc").
		Find(&out).Error
	return out, err
}

func (s *GormStore) OpenCrossingExists(entityKey, to string) (bool, error) {
	var count int64
	err := s.db.Model(&models.BoundaryCrossing{}).
		Where("entity_key = ? AND to_municipality = ? AND status = ?", entityKey, to, models.CrossingOpen).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) ResolveCrossing(id uint, newStatus string, resolution []byte) (bool, error) {
	result := s.db.Model(&models.BoundaryCrossing{}).
		Where("id = ? AND status = ?", id, models.CrossingOpen).
		Updates(map[string]interface{}{
			"status":     newStatus,
			"resolution": resolution,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *GormStore) UpdateCrossingResolution(id uint, resolution []byte) error {
	return s.db.Model(&models.BoundaryCrossing{}).
		Where("id = ?", id).
		Update("resolution", resolution).Error
}

func (s *GormStore) SameDayViolationExists(entityKey, mfbr, from, to string, onDay time.Time, loc *time.Location) (bool, error) {
	local := onDay.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.Add(24 * time.Hour)

	q := s.db.Model(&models.ViolationNotification{}).
		Where("from_municipality = ? AND to_municipality = ?", from, to).
		Where("violation_timestamp >= ? AND violation_timestamp < ?", dayStart, dayEnd)
	if mfbr != "" {
		q = q.Where("entity_key = ? OR mfbr_number = ?", entityKey, mfbr)
	} else {
		q = q.Where("entity_key = ?", entityKey)
	}

	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

func (s *GormStore) CreateViolation(n *models.ViolationNotification) error {
	return s.db.Create(n).Error
}

func (s *GormStore) LatestPendingViolation(entityKey, from, to string) (*models.ViolationNotification, error) {
	var n models.ViolationNotification
	err := s.db.
		Where("entity_key = ? AND from_municipality = ? AND to_municipality = ? AND status = ?",
			entityKey, from, to, models.NotificationPending).
		Order("created_at desc").
		First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *GormStore) ActiveViolationExists(entityKey, to string) (bool, error) {
	var count int64
	err := s.db.Model(&models.ViolationNotification{}).
		Where("entity_key = ? AND to_municipality = ? AND status = ?", entityKey, to, models.NotificationPending).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) UpdateViolationLive(id uint, lat, lng float64, dwellSeconds int) error {
	return s.db.Model(&models.ViolationNotification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_lat":    lat,
			"current_lng":    lng,
			"dwell_duration": dwellSeconds,
		}).Error
}

func (s *GormStore) ClearViolations(entityKey string) ([]models.ViolationNotification, error) {
	var pending []models.ViolationNotification
	if err := s.db.
		Where("entity_key = ? AND status = ?", entityKey, models.NotificationPending).
		Find(&pending).Error; err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}
	err := s.db.Model(&models.ViolationNotification{}).
		Where("entity_key = ? AND status = ?", entityKey, models.NotificationPending).
		Update("status", models.NotificationCleared).Error
	if err != nil {
		return nil, err
	}
	for i := range pending {
		pending[i].Status = models.NotificationCleared
	}
	return pending, nil
}

func (s *GormStore) MarkViolationDispatch(id uint, smsSent bool, smsResponse []byte, phone string) error {
	return s.db.Model(&models.ViolationNotification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"sms_sent":     smsSent,
			"sms_response": smsResponse,
			"phone_number": phone,
		}).Error
}

func (s *GormStore) MarkViolationBroadcast(id uint, at time.Time) (bool, error) {
	result := s.db.Model(&models.ViolationNotification{}).
		Where("id = ? AND broadcast_at IS NULL", id).
		Update("broadcast_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *GormStore) LastStatusEvent(trackerSerial string) (*models.TrackerStatusEvent, error) {
	var ev models.TrackerStatusEvent
	err := s.db.
		Where("tracker_serial = ?", trackerSerial).
		Order("timestamp desc").
		First(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (s *GormStore) CreateStatusEvent(e *models.TrackerStatusEvent) error {
	return s.db.Create(e).Error
}
