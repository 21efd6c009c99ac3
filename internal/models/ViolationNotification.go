package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification lifecycle states. "pending" is the only active state;
// the rest are terminal for that notification instance.
const (
	NotificationPending   = "pending"
	NotificationRead      = "read"
	NotificationDismissed = "dismissed"
	NotificationCleared   = "cleared"
)

// Report workflow states for the downstream enforcement process.
const (
	ReportNotReported        = "Not Reported"
	ReportFisherfolkReported = "Fisherfolk Reported"
	ReportUnderInvestigation = "Under Investigation"
	ReportResolved           = "Resolved"
)

// ViolationNotification is the operator-facing record materialized from a
// pending crossing once the dwell threshold is exceeded. At most one pending
// notification per (entity, route, calendar day).
type ViolationNotification struct {
	gorm.Model
	BoundaryCrossingID uint              `json:"boundary_crossing_id" gorm:"index"`
	BoundaryCrossing   *BoundaryCrossing `gorm:"foreignKey:BoundaryCrossingID" json:"boundary_crossing,omitempty"`

	EntityKey string `json:"entity_key" gorm:"index"`

	// Snapshot of display data at materialization time
	BoatName       string `json:"boat_name"`
	MFBRNumber     string `json:"mfbr_number" gorm:"index"`
	TrackerNumber  string `json:"tracker_number"`
	OwnerName      string `json:"owner_name"`
	ContactName    string `json:"contact_person_name"`
	ContactPhone   string `json:"contact_person_phone"`
	RegistrationNo string `json:"registration_number"`

	FromMunicipality string `json:"from_municipality" gorm:"index:idx_violation_route,priority:1"`
	ToMunicipality   string `json:"to_municipality" gorm:"index:idx_violation_route,priority:2"`

	ViolationTimestamp time.Time `json:"violation_timestamp" gorm:"index:idx_violation_route,priority:3"`
	// Calendar day of the violation in the configured local timezone
	// (YYYY-MM-DD); idx_violation_route_day makes the per-day route
	// cooldown an atomic conditional insert.
	ViolationDay  string  `json:"violation_day" gorm:"type:date"`
	CurrentLat    float64 `json:"current_lat"`
	CurrentLng    float64 `json:"current_lng"`
	DwellDuration int     `json:"dwell_duration"` // seconds

	Status string     `json:"status" gorm:"default:pending;index"`
	ReadAt *time.Time `json:"read_at"`
	ReadBy uint       `json:"read_by"`

	// Dispatch audit; a failed SMS never hides the violation from the UI
	SMSSent     bool       `json:"sms_sent"`
	SMSResponse []byte     `json:"sms_response" gorm:"type:jsonb"`
	PhoneNumber string     `json:"phone_number"`
	BroadcastAt *time.Time `json:"broadcast_at"` // already-broadcast marker

	// Report workflow
	ReportNumber    string     `json:"report_number"`
	ReportStatus    string     `json:"report_status" gorm:"default:Not Reported"`
	Remarks         string     `json:"remarks"`
	StatusUpdatedAt *time.Time `json:"status_updated_at"`
	StatusUpdatedBy uint       `json:"status_updated_by"`
}
