package engine

import (
	"errors"

	"gorm.io/gorm"

	"bantay_tracker/internal/models"
)

// GormRegistry resolves entity snapshots from the registration tables. A
// lookup miss is not an error: the engine proceeds with whatever identifying
// fields the fix itself carried.
type GormRegistry struct {
	db *gorm.DB
}

func NewGormRegistry(db *gorm.DB) *GormRegistry {
	return &GormRegistry{db: db}
}

func (r *GormRegistry) Resolve(mfbrNumber, trackerSerial string) (*EntityInfo, error) {
	info := &EntityInfo{
		EntityKey:     CanonicalEntityKey(mfbrNumber, trackerSerial),
		MFBRNumber:    mfbrNumber,
		TrackerSerial: trackerSerial,
	}

	var tracker *models.Tracker
	if trackerSerial != "" {
		var t models.Tracker
		err := r.db.Preload("Boat.Fisherfolk").Where("serial = ?", trackerSerial).First(&t).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return info, err
		default:
			tracker = &t
		}
	}

	var boat *models.Boat
	if mfbrNumber != "" {
		var b models.Boat
		err := r.db.Preload("Fisherfolk").Where("mfbr_number = ?", mfbrNumber).First(&b).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return info, err
		default:
			boat = &b
		}
	}
	if boat == nil && tracker != nil {
		boat = tracker.Boat
	}

	var owner *models.Fisherfolk
	if boat != nil {
		info.BoatName = boat.BoatName
		if info.MFBRNumber == "" {
			info.MFBRNumber = boat.MFBRNumber
		}
		owner = boat.Fisherfolk
		info.HomeCandidates = append(info.HomeCandidates, boat.RegisteredMunicipality)
	}
	if tracker != nil {
		info.HomeCandidates = append(info.HomeCandidates, tracker.Municipality)
	}
	if owner != nil {
		info.OwnerName = owner.FullName()
		info.RegistrationNumber = owner.RegistrationNumber
		info.HomeCandidates = append(info.HomeCandidates, owner.Municipality)
		// Emergency contact first, the fisherfolk's own number as fallback
		if owner.EmergencyContactNumber != "" {
			info.ContactName = owner.EmergencyContactName
			info.PhoneNumber = owner.EmergencyContactNumber
		} else {
			info.ContactName = owner.FullName()
			info.PhoneNumber = owner.ContactNumber
		}
	}

	return info, nil
}
